package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contraceptive-compass-server/internal/domain"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.RecommendationResult
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*domain.RecommendationResult)}
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.RecommendationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *mapCache) Set(_ context.Context, key string, result *domain.RecommendationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	c.sets++
}

func (c *mapCache) Close() error { return nil }

type memoryHistory struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.RecommendationRecord
	failErr error
	cutoff  time.Time
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{records: make(map[uuid.UUID]*domain.RecommendationRecord)}
}

func (h *memoryHistory) Create(_ context.Context, record *domain.RecommendationRecord) error {
	if h.failErr != nil {
		return h.failErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[record.ID] = record
	return nil
}

func (h *memoryHistory) GetByID(_ context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (h *memoryHistory) ListRecent(_ context.Context, limit int) ([]*domain.RecommendationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*domain.RecommendationRecord, 0, len(h.records))
	for _, r := range h.records {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (h *memoryHistory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	h.cutoff = cutoff
	return 3, nil
}

func TestRecommend(t *testing.T) {
	c := loadCatalog(t)
	svc := NewRecommenderService(c, WithLogger(quietLogger()))

	rec, err := svc.Recommend(context.Background(), domain.RawAnswers{
		"smoking":  ">15 cigarettes/day",
		"priority": "Avoiding hormones",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, c.Version(), rec.CatalogVersion)
	assert.True(t, rec.Answers.HasHeavySmokingOrEquivalent)
	assert.False(t, rec.FromCache)
	assert.Equal(t, c.Len(), rec.Result.Total())
	assert.Contains(t, rec.Result.Names(domain.CONTRAINDICATED), "Combined Oral Contraceptive Pill")
	assert.Contains(t, rec.Result.Names(domain.RECOMMENDED), "Copper IUD (ParaGard)")

	_, err = svc.Lookup(context.Background(), rec.ID)
	assert.ErrorIs(t, err, domain.ErrHistoryDisabled)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecommendCanceledContext(t *testing.T) {
	svc := NewRecommenderService(loadCatalog(t), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Recommend(ctx, domain.RawAnswers{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendUsesCache(t *testing.T) {
	rc := newMapCache()
	svc := NewRecommenderService(loadCatalog(t), WithLogger(quietLogger()), WithResultCache(rc))
	ctx := context.Background()

	first, err := svc.Recommend(ctx, domain.RawAnswers{"priority": "Managing periods"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, rc.sets)

	// Alias ids encode to the same features and share the entry.
	second, err := svc.Recommend(ctx, domain.RawAnswers{"q7": "Managing periods"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Result.Names(domain.RECOMMENDED), second.Result.Names(domain.RECOMMENDED))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, rc.sets)
}

func TestRecommendRecordsHistory(t *testing.T) {
	history := newMemoryHistory()
	svc := NewRecommenderService(loadCatalog(t), WithLogger(quietLogger()), WithHistory(history))
	ctx := context.Background()

	rec, err := svc.Recommend(ctx, domain.RawAnswers{"breastfeeding": "Yes", "conditions": []string{"Migraine with aura"}})
	require.NoError(t, err)

	stored, err := svc.Lookup(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HIGHEST_EFFECTIVENESS, stored.Priority)
	assert.Equal(t, rec.Result.Names(domain.CAUTION), stored.Caution)
	assert.Equal(t, rec.Result.Names(domain.CONTRAINDICATED), stored.Contraindicated)

	recent, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestRecommendSurvivesHistoryFailure(t *testing.T) {
	history := newMemoryHistory()
	history.failErr = errors.New("connection refused")
	svc := NewRecommenderService(loadCatalog(t), WithLogger(quietLogger()), WithHistory(history))

	rec, err := svc.Recommend(context.Background(), domain.RawAnswers{})
	require.NoError(t, err)
	assert.Equal(t, 12, rec.Result.Total())
}

func TestPurgeHistory(t *testing.T) {
	history := newMemoryHistory()
	svc := NewRecommenderService(loadCatalog(t), WithLogger(quietLogger()), WithHistory(history))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	n, err := svc.PurgeHistory(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, fixed.Add(-48*time.Hour), history.cutoff)

	n, err = NewRecommenderService(loadCatalog(t), WithLogger(quietLogger())).PurgeHistory(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
