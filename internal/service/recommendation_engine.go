package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/domain"
)

// Rule codes recorded on each assessment.
const (
	RuleCyclicHormonalRisk  = "SAFETY_CYCLIC_HORMONAL"
	RuleProgestinClotRisk   = "SAFETY_PROGESTIN_CLOT"
	RuleBreastfeeding       = "BREASTFEEDING_OVERRIDE"
	RuleRedFlag             = "RED_FLAG"
	RulePreferenceMatch     = "PREFERENCE_MATCH"
	RuleNoPreferenceMatched = "DEFAULT_CAUTION"
)

// preferenceRule matches a stated priority against a method capability.
type preferenceRule struct {
	Priority    domain.Priority
	Description string
	Matches     func(caps domain.MethodCapabilities) bool
}

// RecommendationEngine places catalog methods into recommendation tiers.
// It holds no per-request state and is safe for concurrent use.
type RecommendationEngine struct {
	logger      *logrus.Logger
	preferences []preferenceRule
}

// NewRecommendationEngine creates a new recommendation engine
func NewRecommendationEngine(logger *logrus.Logger) *RecommendationEngine {
	return &RecommendationEngine{
		logger: logger,
		preferences: []preferenceRule{
			{
				Priority:    domain.HIGHEST_EFFECTIVENESS,
				Description: "typical use failure below 1%",
				Matches:     func(c domain.MethodCapabilities) bool { return c.HighlyEffective },
			},
			{
				Priority:    domain.AVOIDING_HORMONES,
				Description: "hormone-free",
				Matches:     func(c domain.MethodCapabilities) bool { return c.AvoidsHormones },
			},
			{
				Priority:    domain.MANAGING_PERIODS,
				Description: "tends to lighten periods",
				Matches:     func(c domain.MethodCapabilities) bool { return c.LightensPeriods },
			},
			{
				Priority:    domain.LOW_MAINTENANCE,
				Description: "lasts months or years without attention",
				Matches:     func(c domain.MethodCapabilities) bool { return c.LowMaintenance },
			},
			{
				Priority:    domain.QUICK_FERTILITY_RETURN,
				Description: "fertility returns as soon as use stops",
				Matches:     func(c domain.MethodCapabilities) bool { return c.QuickFertilityReturn },
			},
		},
	}
}

// Classify returns the tier of a single method.
func (e *RecommendationEngine) Classify(method domain.Method, answers domain.EncodedAnswers) domain.Tier {
	return e.Assess(method, answers).Tier
}

// Assess classifies a single method and records which rules decided it.
// Safety rules run first, then the breastfeeding override, then the
// priority preference; a method nothing speaks for lands in caution.
func (e *RecommendationEngine) Assess(method domain.Method, answers domain.EncodedAnswers) domain.MethodAssessment {
	caps := method.Capabilities()
	a := domain.MethodAssessment{Method: method.Name}
	var reasons []string

	if caps.CombinedOrCyclicHormonal && answers.HasCombinedHormoneRisk() {
		a.RedFlagged = true
		a.Rules = append(a.Rules, RuleCyclicHormonalRisk)
		reasons = append(reasons, "combined or cyclic hormones with "+riskFactors(answers))
	}
	if caps.ProgestinLongActing && answers.HasClotHistory {
		a.RedFlagged = true
		a.Rules = append(a.Rules, RuleProgestinClotRisk)
		reasons = append(reasons, "long-acting progestin with a history of blood clots")
	}

	switch {
	case answers.IsBreastfeeding && caps.Hormonal:
		a.Rules = append(a.Rules, RuleBreastfeeding)
		if a.RedFlagged {
			a.Tier = domain.CONTRAINDICATED
		} else {
			a.Tier = domain.CAUTION
		}
		reasons = append(reasons, "hormonal method while breastfeeding")
	case a.RedFlagged:
		a.Rules = append(a.Rules, RuleRedFlag)
		a.Tier = domain.CONTRAINDICATED
	default:
		if rule, ok := e.matchPreference(caps, answers.Priority); ok {
			a.Rules = append(a.Rules, RulePreferenceMatch)
			a.Tier = domain.RECOMMENDED
			reasons = append(reasons, fmt.Sprintf("matches priority %q: %s", rule.Priority, rule.Description))
		} else {
			a.Rules = append(a.Rules, RuleNoPreferenceMatched)
			a.Tier = domain.CAUTION
			reasons = append(reasons, "no safety concern and no match for the stated priority")
		}
	}

	a.Reasoning = strings.Join(reasons, "; ")
	return a
}

// ClassifyAll partitions the methods into the three tiers, keeping the input
// order within each tier.
func (e *RecommendationEngine) ClassifyAll(methods []domain.Method, answers domain.EncodedAnswers) domain.RecommendationResult {
	result := domain.RecommendationResult{
		Recommended:     []domain.Method{},
		Caution:         []domain.Method{},
		Contraindicated: []domain.Method{},
		Assessments:     make([]domain.MethodAssessment, 0, len(methods)),
	}

	for _, m := range methods {
		a := e.Assess(m, answers)
		switch a.Tier {
		case domain.RECOMMENDED:
			result.Recommended = append(result.Recommended, m)
		case domain.CONTRAINDICATED:
			result.Contraindicated = append(result.Contraindicated, m)
		default:
			result.Caution = append(result.Caution, m)
		}
		result.Assessments = append(result.Assessments, a)
	}

	e.logger.WithFields(logrus.Fields{
		"methods":         len(methods),
		"recommended":     len(result.Recommended),
		"caution":         len(result.Caution),
		"contraindicated": len(result.Contraindicated),
	}).Debug("Classified catalog")

	return result
}

func (e *RecommendationEngine) matchPreference(caps domain.MethodCapabilities, priority domain.Priority) (preferenceRule, bool) {
	for _, rule := range e.preferences {
		if rule.Priority == priority && rule.Matches(caps) {
			return rule, true
		}
	}
	return preferenceRule{}, false
}

func riskFactors(answers domain.EncodedAnswers) string {
	var factors []string
	if answers.HasHeavySmokingOrEquivalent {
		factors = append(factors, "smoking")
	}
	if answers.HasClotHistory {
		factors = append(factors, "clot history")
	}
	if answers.HasMigraineWithAura {
		factors = append(factors, "migraine with aura")
	}
	if answers.HasHighBloodPressure {
		factors = append(factors, "high blood pressure")
	}
	return strings.Join(factors, ", ")
}
