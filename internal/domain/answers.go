package domain

// RawAnswers maps a question id to the submitted answer: a string for
// single-select questions, a list of strings for multi-select ones. Values
// decoded from JSON may arrive as []any.
type RawAnswers map[string]any

// Question ids.
const (
	QuestionAgeGroup      = "age_group"
	QuestionSmoking       = "smoking"
	QuestionBMI           = "bmi"
	QuestionPeriods       = "periods"
	QuestionBreastfeeding = "breastfeeding"
	QuestionConditions    = "conditions"
	QuestionPriority      = "priority"
)

// QuestionAliases maps the positional ids q1..q7 used by the questionnaire
// pages onto the descriptive ids.
var QuestionAliases = map[string]string{
	"q1": QuestionAgeGroup,
	"q2": QuestionSmoking,
	"q3": QuestionBMI,
	"q4": QuestionPeriods,
	"q5": QuestionBreastfeeding,
	"q6": QuestionConditions,
	"q7": QuestionPriority,
}

// Answer option strings the encoder compares against.
const (
	SmokingNone         = "No"
	BreastfeedingYes    = "Yes"
	BreastfeedingNo     = "No"
	BMIBelow30          = "<30"
	BMIHigh             = "30 or higher"
	PeriodsNoIssues     = "No significant issues"
	PeriodsHeavy        = "Heavy bleeding"
	PeriodsPainful      = "Painful periods"
	PeriodsBoth         = "Both heavy and painful"
	ConditionNone       = "None of these"
	ConditionClot       = "History of blood clots (VTE)"
	ConditionMigraine   = "Migraine with aura"
	ConditionHighBP     = "High blood pressure"
	DefaultPriority     = HIGHEST_EFFECTIVENESS
	DefaultSmoking      = SmokingNone
	DefaultBreastfeed   = BreastfeedingNo
	DefaultBMI          = BMIBelow30
	DefaultPeriodAnswer = PeriodsNoIssues
)

// EncodedAnswers is the feature set the classifier consumes. BMIHigh and
// HeavyOrPainfulPeriods are computed for completeness but no rule reads them.
type EncodedAnswers struct {
	HasHeavySmokingOrEquivalent bool     `json:"has_heavy_smoking_or_equivalent"`
	HasClotHistory              bool     `json:"has_clot_history"`
	HasMigraineWithAura         bool     `json:"has_migraine_with_aura"`
	HasHighBloodPressure        bool     `json:"has_high_blood_pressure"`
	IsBreastfeeding             bool     `json:"is_breastfeeding"`
	BMIHigh                     bool     `json:"bmi_high"`
	HeavyOrPainfulPeriods       bool     `json:"heavy_or_painful_periods"`
	Priority                    Priority `json:"priority"`
}

// HasCombinedHormoneRisk reports whether any factor that rules out
// combined or cyclic hormonal methods is present.
func (e EncodedAnswers) HasCombinedHormoneRisk() bool {
	return e.HasHeavySmokingOrEquivalent || e.HasClotHistory || e.HasMigraineWithAura || e.HasHighBloodPressure
}

// LogFields returns the non-identifying fields safe to log at info level.
func (e EncodedAnswers) LogFields() map[string]any {
	fields := e.Priority.LogFields()
	fields["breastfeeding"] = e.IsBreastfeeding
	fields["combined_risk"] = e.HasCombinedHormoneRisk()
	return fields
}
