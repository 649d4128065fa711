package mcp

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contraceptive-compass-server/internal/catalog"
	litecfg "github.com/contraceptive-compass-server/internal/config"
	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/feedback"
	"github.com/contraceptive-compass-server/internal/service"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestToolset(t *testing.T) (*Toolset, *feedback.SQLiteStore) {
	t.Helper()

	cat, err := catalog.LoadDefault()
	require.NoError(t, err)

	store, err := feedback.NewSQLiteStore(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := service.NewRecommenderService(cat, service.WithLogger(quietLogger()))
	return NewToolset(rec, store, quietLogger()), store
}

func TestToolsetRecommend(t *testing.T) {
	tools, _ := newTestToolset(t)

	result, err := tools.Recommend(context.Background(), RecommendParams{
		Answers: map[string]any{
			"smoking":       "Yes, 15 or more cigarettes per day",
			"breastfeeding": "No",
			"priority":      string(domain.HIGHEST_EFFECTIVENESS),
		},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(result.RecommendationID)
	assert.NoError(t, err)
	assert.Equal(t, "2024.1", result.CatalogVersion)
	assert.Contains(t, result.Contraindicated, "Combined Oral Contraceptive Pill")
	assert.Contains(t, result.Recommended, "Copper IUD (ParaGard)")
	assert.Len(t, result.Assessments, 12)
	assert.Contains(t, result.Summary, "Not recommended:")
	assert.Contains(t, result.Telehealth, "[Nurx →](")
}

func TestToolsetRecommendWithoutAnswers(t *testing.T) {
	tools, _ := newTestToolset(t)

	result, err := tools.Recommend(context.Background(), RecommendParams{})
	require.NoError(t, err)

	assert.Equal(t, domain.HIGHEST_EFFECTIVENESS, result.Answers.Priority)
	assert.Equal(t, 12, len(result.Recommended)+len(result.Caution)+len(result.Contraindicated))
}

func TestToolsetRecommendCancelled(t *testing.T) {
	tools, _ := newTestToolset(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tools.Recommend(ctx, RecommendParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToolsetListMethods(t *testing.T) {
	tools, _ := newTestToolset(t)

	all, err := tools.ListMethods(context.Background(), ListMethodsParams{})
	require.NoError(t, err)
	assert.Len(t, all.Methods, 12)
	assert.Contains(t, all.Text, "Typical use: 13% failure")

	one, err := tools.ListMethods(context.Background(), ListMethodsParams{Name: " Diaphragm "})
	require.NoError(t, err)
	require.Len(t, one.Methods, 1)
	assert.Equal(t, "Diaphragm", one.Methods[0].Name)

	_, err = tools.ListMethods(context.Background(), ListMethodsParams{Name: "Unknown"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToolsetSubmitFeedback(t *testing.T) {
	tools, store := newTestToolset(t)
	ctx := context.Background()
	recID := uuid.NewString()

	result, err := tools.SubmitFeedback(ctx, SubmitFeedbackParams{
		RecommendationID: recID,
		MethodName:       "Copper IUD (ParaGard)",
		SuggestedTier:    "Recommended",
		Chosen:           true,
		Helpful:          true,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.RECOMMENDED, result.Feedback.SuggestedTier)

	saved, err := store.Get(ctx, recID, "Copper IUD (ParaGard)")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.Chosen)

	t.Run("rejects bad tier", func(t *testing.T) {
		_, err := tools.SubmitFeedback(ctx, SubmitFeedbackParams{
			RecommendationID: recID,
			MethodName:       "Diaphragm",
			SuggestedTier:    "maybe",
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "suggested_tier", verr.Field)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := tools.SubmitFeedback(ctx, SubmitFeedbackParams{
			RecommendationID: recID,
			MethodName:       "Crossed Fingers",
			SuggestedTier:    "caution",
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "method_name", verr.Field)
	})

	t.Run("no store", func(t *testing.T) {
		noStore := NewToolset(tools.recommender, nil, quietLogger())
		_, err := noStore.SubmitFeedback(ctx, SubmitFeedbackParams{})
		assert.Error(t, err)
	})
}

func TestNewLiteServer(t *testing.T) {
	cfg := &litecfg.LiteConfig{
		DataDir:       filepath.Join(t.TempDir(), "compass"),
		CacheMaxItems: 10,
		CacheTTL:      time.Minute,
		LogLevel:      "error",
		LogFormat:     "json",
	}

	server, err := NewLiteServer(cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer server.Close()

	assert.NotNil(t, server.GetFeedbackStore())
	assert.FileExists(t, cfg.FeedbackDBPath())
	assert.DirExists(t, cfg.ExportDir())

	result, err := server.Toolset().Recommend(context.Background(), RecommendParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RecommendationID)
}

func TestNewLiteServerBadCatalog(t *testing.T) {
	cfg := &litecfg.LiteConfig{
		DataDir:       t.TempDir(),
		CacheMaxItems: 10,
		CacheTTL:      time.Minute,
		CatalogPath:   filepath.Join(t.TempDir(), "missing.yaml"),
	}

	_, err := NewLiteServer(cfg, WithLogger(quietLogger()))
	assert.Error(t, err)
}
