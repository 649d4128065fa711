package service

import (
	"slices"

	"github.com/contraceptive-compass-server/internal/domain"
)

var heavyOrPainfulAnswers = []string{domain.PeriodsHeavy, domain.PeriodsPainful, domain.PeriodsBoth}

// AnswerEncoder converts raw questionnaire answers into the feature set used
// by the recommendation engine. It never fails: missing or malformed answers
// fall back to the neutral option of their question.
type AnswerEncoder struct{}

// NewAnswerEncoder creates a new answer encoder
func NewAnswerEncoder() *AnswerEncoder {
	return &AnswerEncoder{}
}

// Encode derives the classifier features from raw answers.
func (e *AnswerEncoder) Encode(raw domain.RawAnswers) domain.EncodedAnswers {
	answers := canonicalize(raw)

	conditions := multiAnswer(answers, domain.QuestionConditions)
	periods := singleAnswer(answers, domain.QuestionPeriods, domain.DefaultPeriodAnswer)

	return domain.EncodedAnswers{
		HasHeavySmokingOrEquivalent: singleAnswer(answers, domain.QuestionSmoking, domain.DefaultSmoking) != domain.SmokingNone,
		HasClotHistory:              slices.Contains(conditions, domain.ConditionClot),
		HasMigraineWithAura:         slices.Contains(conditions, domain.ConditionMigraine),
		HasHighBloodPressure:        slices.Contains(conditions, domain.ConditionHighBP),
		IsBreastfeeding:             singleAnswer(answers, domain.QuestionBreastfeeding, domain.DefaultBreastfeed) == domain.BreastfeedingYes,
		BMIHigh:                     singleAnswer(answers, domain.QuestionBMI, domain.DefaultBMI) == domain.BMIHigh,
		HeavyOrPainfulPeriods:       slices.Contains(heavyOrPainfulAnswers, periods),
		Priority:                    domain.Priority(singleAnswer(answers, domain.QuestionPriority, string(domain.DefaultPriority))),
	}
}

// canonicalize rewrites positional question ids to descriptive ones. When
// both forms are present the descriptive id wins.
func canonicalize(raw domain.RawAnswers) domain.RawAnswers {
	out := make(domain.RawAnswers, len(raw))
	for k, v := range raw {
		if canonical, ok := domain.QuestionAliases[k]; ok {
			if _, exists := raw[canonical]; exists {
				continue
			}
			k = canonical
		}
		out[k] = v
	}
	return out
}

// singleAnswer returns the string answer for id, or def when the answer is
// absent or not a string.
func singleAnswer(answers domain.RawAnswers, id, def string) string {
	v, ok := answers[id]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// multiAnswer returns the selected options for a multi-select question. A
// bare string counts as a single selection and non-string entries are dropped.
func multiAnswer(answers domain.RawAnswers, id string) []string {
	switch v := answers[id].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
