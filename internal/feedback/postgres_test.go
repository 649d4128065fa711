package feedback

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contraceptive-compass-server/internal/domain"
)

var feedbackColumns = []string{
	"id", "recommendation_id", "method_name", "suggested_tier",
	"chosen", "helpful", "notes", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		store.Close()
	})
	return store, mock
}

func TestNewPostgresStoreRequiresDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	fb := newFeedback("Hormonal IUD (e.g., Mirena)", domain.RECOMMENDED)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO feedback")).
		WithArgs(fb.RecommendationID, fb.MethodName, "recommended", true, true, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created))

	require.NoError(t, store.Save(context.Background(), fb))
	assert.Equal(t, int64(42), fb.ID)
	assert.Equal(t, created, fb.CreatedAt)
	assert.False(t, fb.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveValidatesFirst(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.Save(context.Background(), &Feedback{MethodName: "Diaphragm", SuggestedTier: domain.CAUTION})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recommendation_id", verr.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM feedback WHERE recommendation_id = $1 AND method_name = $2")).
		WithArgs(id, "Diaphragm").
		WillReturnRows(sqlmock.NewRows(feedbackColumns).
			AddRow(int64(7), id, "Diaphragm", "caution", false, true, "too fiddly", now, now))

	fb, err := store.Get(context.Background(), id, "Diaphragm")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, domain.CAUTION, fb.SuggestedTier)
	assert.True(t, fb.Helpful)
	assert.Equal(t, "too fiddly", fb.Notes)

	mock.ExpectQuery(regexp.QuoteMeta("FROM feedback WHERE recommendation_id")).
		WithArgs(id, "Female Condom").
		WillReturnRows(sqlmock.NewRows(feedbackColumns))

	fb, err = store.Get(context.Background(), id, "Female Condom")
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(feedbackColumns).
			AddRow(int64(2), uuid.NewString(), "Male Condom", "caution", true, true, "", now, now).
			AddRow(int64(1), uuid.NewString(), "Copper IUD (ParaGard)", "recommended", false, false, "", now, now))

	all, err := store.List(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Male Condom", all[0].MethodName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountAndDelete(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM feedback WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Delete(ctx, 3))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM feedback WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Delete(ctx, 99), domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
