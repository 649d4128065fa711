package service

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contraceptive-compass-server/internal/catalog"
	"github.com/contraceptive-compass-server/internal/domain"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadDefault()
	require.NoError(t, err)
	return c
}

func method(t *testing.T, c *catalog.Catalog, name string) domain.Method {
	t.Helper()
	m, err := c.Method(name)
	require.NoError(t, err)
	return m
}

func TestClassifyScenarios(t *testing.T) {
	c := loadCatalog(t)
	engine := NewRecommendationEngine(quietLogger())

	tests := []struct {
		name    string
		method  domain.Method
		answers domain.EncodedAnswers
		want    domain.Tier
	}{
		{
			name:    "smoker and combined pill",
			method:  method(t, c, "Combined Oral Contraceptive Pill"),
			answers: domain.EncodedAnswers{HasHeavySmokingOrEquivalent: true, Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.CONTRAINDICATED,
		},
		{
			name:    "copper IUD when avoiding hormones",
			method:  method(t, c, "Copper IUD (ParaGard)"),
			answers: domain.EncodedAnswers{Priority: domain.AVOIDING_HORMONES},
			want:    domain.RECOMMENDED,
		},
		{
			name:    "hormonal IUD while breastfeeding",
			method:  method(t, c, "Hormonal IUD (e.g., Mirena)"),
			answers: domain.EncodedAnswers{IsBreastfeeding: true, Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.CAUTION,
		},
		{
			name:    "hormonal IUD while breastfeeding with clot history",
			method:  method(t, c, "Hormonal IUD (e.g., Mirena)"),
			answers: domain.EncodedAnswers{IsBreastfeeding: true, HasClotHistory: true, Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.CONTRAINDICATED,
		},
		{
			name:    "implant for low maintenance",
			method:  method(t, c, "Contraceptive Implant"),
			answers: domain.EncodedAnswers{Priority: domain.LOW_MAINTENANCE},
			want:    domain.RECOMMENDED,
		},
		{
			name:    "male condom for highest effectiveness",
			method:  method(t, c, "Male Condom"),
			answers: domain.EncodedAnswers{Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.CAUTION,
		},
		{
			name:    "progestin long acting ignores smoking",
			method:  method(t, c, "Contraceptive Implant"),
			answers: domain.EncodedAnswers{HasHeavySmokingOrEquivalent: true, HasMigraineWithAura: true, HasHighBloodPressure: true, Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.RECOMMENDED,
		},
		{
			name:    "progestin-only pill matches pill token",
			method:  method(t, c, "Progestin-only Pill"),
			answers: domain.EncodedAnswers{HasMigraineWithAura: true, Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.CONTRAINDICATED,
		},
		{
			name:    "breastfeeding does not affect non-hormonal methods",
			method:  method(t, c, "Diaphragm"),
			answers: domain.EncodedAnswers{IsBreastfeeding: true, Priority: domain.QUICK_FERTILITY_RETURN},
			want:    domain.RECOMMENDED,
		},
		{
			name:    "breastfeeding override wins over preference",
			method:  method(t, c, "Hormonal IUD (e.g., Mirena)"),
			answers: domain.EncodedAnswers{IsBreastfeeding: true, Priority: domain.MANAGING_PERIODS},
			want:    domain.CAUTION,
		},
		{
			name:    "managing periods needs the exact pro",
			method:  method(t, c, "Combined Oral Contraceptive Pill"),
			answers: domain.EncodedAnswers{Priority: domain.MANAGING_PERIODS},
			want:    domain.CAUTION,
		},
		{
			name:    "injection every three months is low maintenance",
			method:  method(t, c, "Depo-Provera Injection"),
			answers: domain.EncodedAnswers{Priority: domain.LOW_MAINTENANCE},
			want:    domain.RECOMMENDED,
		},
		{
			name:    "unknown priority falls back to caution",
			method:  method(t, c, "Copper IUD (ParaGard)"),
			answers: domain.EncodedAnswers{Priority: domain.Priority("Lowest cost")},
			want:    domain.CAUTION,
		},
		{
			name:    "bmi and period flags are not consumed",
			method:  method(t, c, "Contraceptive Patch"),
			answers: domain.EncodedAnswers{BMIHigh: true, HeavyOrPainfulPeriods: true, Priority: domain.HIGHEST_EFFECTIVENESS},
			want:    domain.CAUTION,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Classify(tt.method, tt.answers))
		})
	}
}

func TestClassifyHandBuiltMethods(t *testing.T) {
	engine := NewRecommendationEngine(quietLogger())

	// Name-based matching applies to methods that never went through the
	// catalog loader.
	m := domain.Method{Name: "Weekly Patch", TypicalUseFailureRate: "<1%", Pros: []string{}}
	assert.Equal(t, domain.CONTRAINDICATED, engine.Classify(m, domain.EncodedAnswers{HasHighBloodPressure: true}))
	assert.Equal(t, domain.RECOMMENDED, engine.Classify(m, domain.EncodedAnswers{Priority: domain.HIGHEST_EFFECTIVENESS}))
}

func TestAssessRecordsRules(t *testing.T) {
	c := loadCatalog(t)
	engine := NewRecommendationEngine(quietLogger())

	a := engine.Assess(method(t, c, "Hormonal IUD (e.g., Mirena)"), domain.EncodedAnswers{IsBreastfeeding: true, HasClotHistory: true})
	assert.True(t, a.RedFlagged)
	assert.Equal(t, []string{RuleProgestinClotRisk, RuleBreastfeeding}, a.Rules)
	assert.Contains(t, a.Reasoning, "blood clots")

	a = engine.Assess(method(t, c, "Vaginal Ring (NuvaRing)"), domain.EncodedAnswers{HasHeavySmokingOrEquivalent: true, HasClotHistory: true})
	assert.Equal(t, domain.CONTRAINDICATED, a.Tier)
	assert.Equal(t, []string{RuleCyclicHormonalRisk, RuleRedFlag}, a.Rules)
	assert.Contains(t, a.Reasoning, "smoking, clot history")

	a = engine.Assess(method(t, c, "Fertility Awareness"), domain.EncodedAnswers{Priority: domain.QUICK_FERTILITY_RETURN})
	assert.False(t, a.RedFlagged)
	assert.Equal(t, []string{RulePreferenceMatch}, a.Rules)
}

func TestClassifyAllPartitions(t *testing.T) {
	c := loadCatalog(t)
	engine := NewRecommendationEngine(quietLogger())

	tests := []struct {
		name    string
		answers domain.EncodedAnswers
		want    map[domain.Tier][]string
	}{
		{
			name:    "neutral answers",
			answers: domain.EncodedAnswers{Priority: domain.HIGHEST_EFFECTIVENESS},
			want: map[domain.Tier][]string{
				domain.RECOMMENDED: {"Contraceptive Implant", "Hormonal IUD (e.g., Mirena)", "Copper IUD (ParaGard)"},
				domain.CAUTION: {
					"Combined Oral Contraceptive Pill", "Progestin-only Pill", "Male Condom", "Depo-Provera Injection",
					"Contraceptive Patch", "Vaginal Ring (NuvaRing)", "Female Condom", "Diaphragm", "Fertility Awareness",
				},
				domain.CONTRAINDICATED: {},
			},
		},
		{
			name:    "smoker avoiding hormones",
			answers: domain.EncodedAnswers{HasHeavySmokingOrEquivalent: true, Priority: domain.AVOIDING_HORMONES},
			want: map[domain.Tier][]string{
				domain.RECOMMENDED: {"Male Condom", "Copper IUD (ParaGard)", "Female Condom", "Diaphragm", "Fertility Awareness"},
				domain.CAUTION:     {"Contraceptive Implant", "Hormonal IUD (e.g., Mirena)", "Depo-Provera Injection"},
				domain.CONTRAINDICATED: {
					"Combined Oral Contraceptive Pill", "Progestin-only Pill", "Contraceptive Patch", "Vaginal Ring (NuvaRing)",
				},
			},
		},
		{
			name:    "breastfeeding with clot history wanting low maintenance",
			answers: domain.EncodedAnswers{IsBreastfeeding: true, HasClotHistory: true, Priority: domain.LOW_MAINTENANCE},
			want: map[domain.Tier][]string{
				domain.RECOMMENDED: {"Copper IUD (ParaGard)"},
				domain.CAUTION:     {"Male Condom", "Female Condom", "Diaphragm", "Fertility Awareness"},
				domain.CONTRAINDICATED: {
					"Combined Oral Contraceptive Pill", "Progestin-only Pill", "Contraceptive Implant",
					"Hormonal IUD (e.g., Mirena)", "Depo-Provera Injection", "Contraceptive Patch", "Vaginal Ring (NuvaRing)",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.ClassifyAll(c.Methods(), tt.answers)
			got := map[domain.Tier][]string{
				domain.RECOMMENDED:     result.Names(domain.RECOMMENDED),
				domain.CAUTION:         result.Names(domain.CAUTION),
				domain.CONTRAINDICATED: result.Names(domain.CONTRAINDICATED),
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("partition mismatch (-want +got):\n%s", diff)
			}
			assert.Len(t, result.Assessments, c.Len())
		})
	}
}

// Every method lands in exactly one bucket and buckets keep catalog order,
// for every combination of the boolean features and every priority.
func TestClassifyAllTotalAndOrdered(t *testing.T) {
	c := loadCatalog(t)
	engine := NewRecommendationEngine(quietLogger())
	methods := c.Methods()

	position := make(map[string]int, len(methods))
	for i, m := range methods {
		position[m.Name] = i
	}

	priorities := []domain.Priority{
		domain.HIGHEST_EFFECTIVENESS, domain.AVOIDING_HORMONES, domain.MANAGING_PERIODS,
		domain.LOW_MAINTENANCE, domain.QUICK_FERTILITY_RETURN, "Something else",
	}

	for bits := 0; bits < 1<<7; bits++ {
		for _, p := range priorities {
			answers := domain.EncodedAnswers{
				HasHeavySmokingOrEquivalent: bits&1 != 0,
				HasClotHistory:              bits&2 != 0,
				HasMigraineWithAura:         bits&4 != 0,
				HasHighBloodPressure:        bits&8 != 0,
				IsBreastfeeding:             bits&16 != 0,
				BMIHigh:                     bits&32 != 0,
				HeavyOrPainfulPeriods:       bits&64 != 0,
				Priority:                    p,
			}
			result := engine.ClassifyAll(methods, answers)
			require.Equal(t, len(methods), result.Total())

			seen := make(map[string]bool, len(methods))
			for _, tier := range domain.Tiers {
				last := -1
				for _, name := range result.Names(tier) {
					require.False(t, seen[name], "%s appears twice", name)
					seen[name] = true
					require.Greater(t, position[name], last, "bucket %s out of catalog order", tier)
					last = position[name]
				}
			}
			require.Len(t, seen, len(methods))
		}
	}
}

func TestClassifyAllDeterministicAndConcurrent(t *testing.T) {
	c := loadCatalog(t)
	engine := NewRecommendationEngine(quietLogger())
	answers := domain.EncodedAnswers{HasMigraineWithAura: true, Priority: domain.MANAGING_PERIODS}
	want := engine.ClassifyAll(c.Methods(), answers)

	var wg sync.WaitGroup
	results := make([]domain.RecommendationResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.ClassifyAll(c.Methods(), answers)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		for _, tier := range domain.Tiers {
			assert.Equal(t, want.Names(tier), got.Names(tier))
		}
	}
}

func TestClassifyAllEmptyCatalog(t *testing.T) {
	engine := NewRecommendationEngine(quietLogger())
	result := engine.ClassifyAll(nil, domain.EncodedAnswers{})

	assert.Equal(t, 0, result.Total())
	assert.NotNil(t, result.Recommended)
	assert.NotNil(t, result.Caution)
	assert.NotNil(t, result.Contraindicated)
}
