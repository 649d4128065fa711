// Package feedback stores anonymous feedback on served recommendations:
// whether a suggested method was chosen and whether the suggestion helped.
// Entries reference a recommendation id and a method name only.
package feedback

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/contraceptive-compass-server/internal/domain"
)

// Feedback is one user's verdict on one method of one recommendation.
type Feedback struct {
	ID               int64       `json:"id,omitempty"`
	RecommendationID string      `json:"recommendation_id" validate:"required,uuid"`
	MethodName       string      `json:"method_name" validate:"required,notblank,max=200"`
	SuggestedTier    domain.Tier `json:"suggested_tier" validate:"required,tier"`
	Chosen           bool        `json:"chosen"`
	Helpful          bool        `json:"helpful"`
	Notes            string      `json:"notes,omitempty" validate:"max=2000"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates feedback. Feedback for the same
	// recommendation and method replaces the earlier entry.
	Save(ctx context.Context, feedback *Feedback) error

	// Get returns the feedback for a recommendation and method, or nil.
	Get(ctx context.Context, recommendationID, methodName string) (*Feedback, error)

	// List returns feedback entries, newest first.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	Count(ctx context.Context) (int64, error)

	Delete(ctx context.Context, id int64) error

	// ExportJSON writes all feedback as a FeedbackExport document.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON reads a FeedbackExport document. Entries that already
	// exist are skipped.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}

const exportVersion = "1.0"

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// Open returns the store selected by cfg.Driver. dsn is only used by the
// postgres driver.
func Open(cfg domain.FeedbackConfig, db domain.DatabaseConfig, dsn string) (Store, error) {
	switch cfg.Driver {
	case "", domain.FeedbackDriverSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case domain.FeedbackDriverPostgres:
		s, err := NewPostgresStoreFromURL(dsn, db)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown feedback driver: %s", cfg.Driver)
	}
}
