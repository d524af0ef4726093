package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func artistRows(id string) *sqlmock.Rows {
	prices, _ := json.Marshal(models.PriceTable{Small: 20000, Medium: 40000, Large: 80000})
	specialties, _ := json.Marshal([]models.Specialty{
		{Style: "japanese", Proficiency: 3, ExperienceYears: 8},
	})
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	return sqlmock.NewRows([]string{
		"id", "name", "contact_email", "latitude", "longitude", "hourly_rate",
		"prices", "specialties", "rating", "review_count", "verified",
		"created_at", "updated_at",
	}).AddRow(id, "Aoi", "aoi@example.com", 35.6812, 139.7671, 15000,
		prices, specialties, 4.8, 25, true, now, now)
}

func portfolioRows(artistID string) *sqlmock.Rows {
	descriptor, _ := json.Marshal(models.DesignDescriptor{
		Style:      "japanese",
		IsColorful: true,
		Motifs:     []string{"dragon"},
		Complexity: "complex",
	})
	analyzed := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	return sqlmock.NewRows([]string{"id", "artist_id", "image_url", "descriptor", "analyzed_at"}).
		AddRow("p-1", artistID, "https://img.example.com/p1.jpg", descriptor, analyzed).
		AddRow("p-2", artistID, "https://img.example.com/p2.jpg", nil, nil)
}

func TestArtistStore_Get(t *testing.T) {
	db, mock := setupMockDB(t)
	_, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM artists")).
		WithArgs("artist-1").
		WillReturnRows(artistRows("artist-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolio_items")).
		WithArgs("artist-1").
		WillReturnRows(portfolioRows("artist-1"))

	profile, err := store.Get(context.Background(), "artist-1")
	require.NoError(t, err)

	assert.Equal(t, "Aoi", profile.Name)
	assert.Equal(t, 4.8, profile.Rating)
	require.NotNil(t, profile.Prices)
	assert.Equal(t, 40000, profile.Prices.Medium)
	require.Len(t, profile.Portfolio, 2)
	assert.NotNil(t, profile.Portfolio[0].Descriptor)
	assert.Nil(t, profile.Portfolio[1].Descriptor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtistStore_Get_SecondReadHitsCache(t *testing.T) {
	db, mock := setupMockDB(t)
	_, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM artists")).
		WithArgs("artist-1").
		WillReturnRows(artistRows("artist-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolio_items")).
		WithArgs("artist-1").
		WillReturnRows(portfolioRows("artist-1"))

	_, err := store.Get(context.Background(), "artist-1")
	require.NoError(t, err)

	// No further SQL expectations: this read must come from the cache.
	profile, err := store.Get(context.Background(), "artist-1")
	require.NoError(t, err)
	assert.Equal(t, "Aoi", profile.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtistStore_Get_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	_, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM artists")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeArtistNotFound))
}

func TestArtistStore_GetMany_SkipsMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	_, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM artists")).
		WithArgs("artist-1").
		WillReturnRows(artistRows("artist-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolio_items")).
		WithArgs("artist-1").
		WillReturnRows(portfolioRows("artist-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM artists")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	profiles, err := store.GetMany(context.Background(), []string{"artist-1", "ghost"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "artist-1", profiles[0].ID)
}

func TestArtistStore_UpdateDescriptor(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	// Warm the cache so the update has something to invalidate.
	require.NoError(t, mr.Set(artistCacheKeyPrefix+"artist-1", `{"id":"artist-1"}`))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_items")).
		WithArgs(sqlmock.AnyArg(), "p-1", "artist-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	descriptor := &models.DesignDescriptor{Style: "japanese", Complexity: "complex"}
	require.NoError(t, store.UpdateDescriptor(context.Background(), "artist-1", "p-1", descriptor))

	assert.False(t, mr.Exists(artistCacheKeyPrefix+"artist-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtistStore_UpdateDescriptor_UnknownItem(t *testing.T) {
	db, mock := setupMockDB(t)
	_, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_items")).
		WithArgs(sqlmock.AnyArg(), "nope", "artist-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateDescriptor(context.Background(), "artist-1", "nope", &models.DesignDescriptor{Style: "japanese"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeArtistNotFound))
}

func TestArtistStore_RecordCompletion(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	require.NoError(t, mr.Set(artistCacheKeyPrefix+"artist-1", `{"id":"artist-1"}`))

	rating := 4.5
	mock.ExpectExec(regexp.QuoteMeta("UPDATE artists")).
		WithArgs(rating, "artist-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.RecordCompletion(context.Background(), "artist-1", &rating))
	assert.False(t, mr.Exists(artistCacheKeyPrefix+"artist-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtistStore_RecordCompletion_WithoutRating(t *testing.T) {
	db, mock := setupMockDB(t)
	_, cache := setupRedis(t)
	store := NewArtistStore(db, cache, 10*time.Minute, logger.NewTestLogger(t))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE artists")).
		WithArgs("artist-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.RecordCompletion(context.Background(), "artist-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
