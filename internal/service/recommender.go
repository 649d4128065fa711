package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/cache"
	"github.com/contraceptive-compass-server/internal/catalog"
	"github.com/contraceptive-compass-server/internal/domain"
)

// RecommenderService orchestrates answer encoding, classification, result
// caching and optional history recording for one submission at a time.
type RecommenderService struct {
	catalog *catalog.Catalog
	encoder domain.AnswerEncoder
	engine  domain.Classifier
	cache   cache.ResultCache
	history domain.RecommendationRepository
	logger  *logrus.Logger
	now     func() time.Time
}

// Option configures a RecommenderService.
type Option func(*RecommenderService)

// WithResultCache enables result caching.
func WithResultCache(c cache.ResultCache) Option {
	return func(s *RecommenderService) {
		s.cache = c
	}
}

// WithHistory records a summary of every served recommendation.
func WithHistory(repo domain.RecommendationRepository) Option {
	return func(s *RecommenderService) {
		s.history = repo
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *RecommenderService) {
		s.logger = logger
	}
}

// NewRecommenderService creates a new recommender over the given catalog
func NewRecommenderService(cat *catalog.Catalog, opts ...Option) *RecommenderService {
	s := &RecommenderService{
		catalog: cat,
		encoder: NewAnswerEncoder(),
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = NewRecommendationEngine(s.logger)
	return s
}

// Catalog returns the catalog recommendations are drawn from.
func (s *RecommenderService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Encode exposes the answer encoder.
func (s *RecommenderService) Encode(raw domain.RawAnswers) domain.EncodedAnswers {
	return s.encoder.Encode(raw)
}

// Recommend classifies the whole catalog for one set of raw answers.
func (s *RecommenderService) Recommend(ctx context.Context, raw domain.RawAnswers) (*domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	encoded := s.encoder.Encode(raw)

	rec := &domain.Recommendation{
		ID:             uuid.New(),
		CatalogVersion: s.catalog.Version(),
		Answers:        encoded,
		CreatedAt:      start.UTC(),
	}

	key := cache.Key(s.catalog.Version(), encoded)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			rec.Result = *cached
			rec.FromCache = true
		}
	}
	if !rec.FromCache {
		rec.Result = s.engine.ClassifyAll(s.catalog.Methods(), encoded)
		if s.cache != nil {
			result := rec.Result
			s.cache.Set(ctx, key, &result)
		}
	}
	rec.ProcessingTime = s.now().Sub(start)

	if s.history != nil {
		if err := s.history.Create(ctx, domain.NewRecommendationRecord(rec)); err != nil {
			s.logger.WithError(err).WithField("recommendation_id", rec.ID).Warn("Failed to record recommendation history")
		}
	}

	s.logger.WithFields(logrus.Fields(encoded.LogFields())).WithFields(logrus.Fields{
		"recommendation_id": rec.ID,
		"recommended":       len(rec.Result.Recommended),
		"caution":           len(rec.Result.Caution),
		"contraindicated":   len(rec.Result.Contraindicated),
		"from_cache":        rec.FromCache,
		"processing_time":   rec.ProcessingTime.String(),
	}).Info("Served recommendation")

	return rec, nil
}

// Lookup returns the stored summary of a served recommendation.
func (s *RecommenderService) Lookup(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	if s.history == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, domain.ErrHistoryDisabled)
	}
	return s.history.GetByID(ctx, id)
}

// Recent returns the most recently served recommendations.
func (s *RecommenderService) Recent(ctx context.Context, limit int) ([]*domain.RecommendationRecord, error) {
	if s.history == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.history.ListRecent(ctx, limit)
}

// PurgeHistory deletes history rows older than retention.
func (s *RecommenderService) PurgeHistory(ctx context.Context, retention time.Duration) (int64, error) {
	if s.history == nil || retention <= 0 {
		return 0, nil
	}
	n, err := s.history.DeleteOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge recommendation history: %w", err)
	}
	if n > 0 {
		s.logger.WithField("deleted", n).Info("Purged recommendation history")
	}
	return n, nil
}
