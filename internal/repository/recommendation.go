package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/domain"
)

// RecommendationRepository persists summaries of served recommendations
type RecommendationRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *pgxpool.Pool, logger *logrus.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:  db,
		log: logger,
	}
}

const recommendationColumns = `id, catalog_version, priority, recommended, caution,
	contraindicated, processing_time_ms, created_at`

// Create inserts a recommendation summary
func (r *RecommendationRepository) Create(ctx context.Context, record *domain.RecommendationRecord) error {
	query := `
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.CatalogVersion,
		string(record.Priority),
		nonNil(record.Recommended),
		nonNil(record.Caution),
		nonNil(record.Contraindicated),
		record.ProcessingTimeMs,
		record.CreatedAt,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"recommendation_id": record.ID,
			"error":             err,
		}).Error("Failed to create recommendation record")
		return fmt.Errorf("creating recommendation: %w", err)
	}

	r.log.WithField("recommendation_id", record.ID).Debug("Recommendation record created")
	return nil
}

// GetByID retrieves a recommendation summary by its ID
func (r *RecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("recommendation not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"recommendation_id": id,
			"error":             err,
		}).Error("Failed to get recommendation by ID")
		return nil, fmt.Errorf("getting recommendation by ID: %w", err)
	}

	return record, nil
}

// ListRecent returns the newest recommendation summaries
func (r *RecommendationRepository) ListRecent(ctx context.Context, limit int) ([]*domain.RecommendationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + recommendationColumns + ` FROM recommendations ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recommendations: %w", err)
	}
	defer rows.Close()

	records := []*domain.RecommendationRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// DeleteOlderThan removes summaries created before cutoff
func (r *RecommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM recommendations WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old recommendations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*domain.RecommendationRecord, error) {
	var record domain.RecommendationRecord
	var priority string

	err := row.Scan(
		&record.ID,
		&record.CatalogVersion,
		&priority,
		&record.Recommended,
		&record.Caution,
		&record.Contraindicated,
		&record.ProcessingTimeMs,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Priority = domain.Priority(priority)
	return &record, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
