package domain

import (
	"time"

	"github.com/google/uuid"
)

// MethodAssessment records how one method was classified for one submission.
type MethodAssessment struct {
	Method     string   `json:"method"`
	Tier       Tier     `json:"tier"`
	RedFlagged bool     `json:"red_flagged"`
	Rules      []string `json:"rules"`
	Reasoning  string   `json:"reasoning"`
}

// RecommendationResult partitions the catalog into the three tiers. Every
// method appears in exactly one bucket and buckets keep catalog order.
type RecommendationResult struct {
	Recommended     []Method           `json:"recommended"`
	Caution         []Method           `json:"caution"`
	Contraindicated []Method           `json:"contraindicated"`
	Assessments     []MethodAssessment `json:"assessments"`
}

// Bucket returns the methods placed in the given tier.
func (r *RecommendationResult) Bucket(t Tier) []Method {
	switch t {
	case RECOMMENDED:
		return r.Recommended
	case CAUTION:
		return r.Caution
	case CONTRAINDICATED:
		return r.Contraindicated
	default:
		return nil
	}
}

// Names returns the method names in the given tier.
func (r *RecommendationResult) Names(t Tier) []string {
	bucket := r.Bucket(t)
	names := make([]string, 0, len(bucket))
	for _, m := range bucket {
		names = append(names, m.Name)
	}
	return names
}

// Total is the number of classified methods across all tiers.
func (r *RecommendationResult) Total() int {
	return len(r.Recommended) + len(r.Caution) + len(r.Contraindicated)
}

// Recommendation is one served recommendation.
type Recommendation struct {
	ID             uuid.UUID            `json:"id"`
	CatalogVersion string               `json:"catalog_version"`
	Answers        EncodedAnswers       `json:"answers"`
	Result         RecommendationResult `json:"result"`
	ProcessingTime time.Duration        `json:"processing_time"`
	FromCache      bool                 `json:"from_cache"`
	CreatedAt      time.Time            `json:"created_at"`
}

// RecommendationRecord is the persisted form of a recommendation. It keeps
// only the priority and the method names per tier; raw health answers are
// never stored.
type RecommendationRecord struct {
	ID               uuid.UUID `json:"id"`
	CatalogVersion   string    `json:"catalog_version"`
	Priority         Priority  `json:"priority"`
	Recommended      []string  `json:"recommended"`
	Caution          []string  `json:"caution"`
	Contraindicated  []string  `json:"contraindicated"`
	ProcessingTimeMs int       `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewRecommendationRecord builds the storable summary of a recommendation.
func NewRecommendationRecord(rec *Recommendation) *RecommendationRecord {
	return &RecommendationRecord{
		ID:               rec.ID,
		CatalogVersion:   rec.CatalogVersion,
		Priority:         rec.Answers.Priority,
		Recommended:      rec.Result.Names(RECOMMENDED),
		Caution:          rec.Result.Names(CAUTION),
		Contraindicated:  rec.Result.Names(CONTRAINDICATED),
		ProcessingTimeMs: int(rec.ProcessingTime.Milliseconds()),
		CreatedAt:        rec.CreatedAt,
	}
}

// Question is one questionnaire item.
type Question struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Multi   bool     `json:"multi,omitempty"`
	Help    string   `json:"help,omitempty"`
}

// TelehealthOption is an external provider the user can be pointed to.
type TelehealthOption struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
