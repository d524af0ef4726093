// Package repository holds the storage adapters: artist profiles in
// PostgreSQL with a Redis read-through cache, booking and schedule
// documents in Redis, and the Elasticsearch match-query audit sink.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

const artistCacheKeyPrefix = "artist:profile:"

// ArtistStore reads artist profiles from PostgreSQL, caching whole
// documents in Redis. Writes go to PostgreSQL first and invalidate the
// cache afterwards, so readers only ever cache committed rows.
type ArtistStore struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewArtistStore creates an artist store. cacheTTL bounds staleness of the
// read-through cache.
func NewArtistStore(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *ArtistStore {
	return &ArtistStore{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// Get returns the full artist profile with portfolio, from cache when warm.
func (s *ArtistStore) Get(ctx context.Context, artistID string) (*models.ArtistProfile, error) {
	if profile := s.fromCache(ctx, artistID); profile != nil {
		return profile, nil
	}

	profile, err := s.fetch(ctx, artistID)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, profile)
	return profile, nil
}

// GetMany resolves several profiles, skipping ids that no longer exist.
// Result order follows the input order.
func (s *ArtistStore) GetMany(ctx context.Context, artistIDs []string) ([]*models.ArtistProfile, error) {
	profiles := make([]*models.ArtistProfile, 0, len(artistIDs))
	for _, id := range artistIDs {
		profile, err := s.Get(ctx, id)
		if err != nil {
			if apperrors.IsCode(err, apperrors.ErrCodeArtistNotFound) {
				continue
			}
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// UpdateDescriptor swaps the analyzed descriptor of one portfolio item in a
// single UPDATE, then invalidates the cached profile. The swap is atomic at
// the row level so a concurrent match read sees either the old or the new
// descriptor, never a partial one.
func (s *ArtistStore) UpdateDescriptor(ctx context.Context, artistID, itemID string, descriptor *models.DesignDescriptor) error {
	payload, err := json.Marshal(descriptor)
	if err != nil {
		return apperrors.NewValidationFailedError(fmt.Sprintf("descriptor not serializable: %v", err))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE portfolio_items
		SET descriptor = $1, analyzed_at = NOW()
		WHERE id = $2 AND artist_id = $3`,
		payload, itemID, artistID)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if affected == 0 {
		return apperrors.NewArtistNotFoundError(artistID)
	}

	s.invalidate(ctx, artistID)
	return nil
}

// RecordCompletion folds one completed booking into the artist's aggregate
// rating and review count, then invalidates the cached profile. A nil
// rating only bumps the completion count.
func (s *ArtistStore) RecordCompletion(ctx context.Context, artistID string, rating *float64) error {
	var res sql.Result
	var err error
	if rating != nil {
		res, err = s.db.ExecContext(ctx, `
			UPDATE artists
			SET rating = ((rating * review_count) + $1) / (review_count + 1),
			    review_count = review_count + 1,
			    completed_bookings = completed_bookings + 1,
			    updated_at = NOW()
			WHERE id = $2`,
			*rating, artistID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE artists
			SET completed_bookings = completed_bookings + 1,
			    updated_at = NOW()
			WHERE id = $1`,
			artistID)
	}
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if affected == 0 {
		return apperrors.NewArtistNotFoundError(artistID)
	}

	s.invalidate(ctx, artistID)
	return nil
}

func (s *ArtistStore) fetch(ctx context.Context, artistID string) (*models.ArtistProfile, error) {
	var (
		profile     models.ArtistProfile
		prices      []byte
		specialties []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, contact_email, latitude, longitude, hourly_rate,
		       prices, specialties, rating, review_count, verified,
		       created_at, updated_at
		FROM artists
		WHERE id = $1`,
		artistID).Scan(
		&profile.ID, &profile.Name, &profile.ContactEmail,
		&profile.Location.Latitude, &profile.Location.Longitude,
		&profile.HourlyRate, &prices, &specialties,
		&profile.Rating, &profile.ReviewCount, &profile.Verified,
		&profile.CreatedAt, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewArtistNotFoundError(artistID)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	if len(prices) > 0 {
		var table models.PriceTable
		if err := json.Unmarshal(prices, &table); err == nil {
			profile.Prices = &table
		}
	}
	if len(specialties) > 0 {
		if err := json.Unmarshal(specialties, &profile.Specialties); err != nil {
			s.logger.WithError(err).Warn("Failed to decode specialties", map[string]interface{}{
				"artistId": artistID,
			})
		}
	}

	portfolio, err := s.fetchPortfolio(ctx, artistID)
	if err != nil {
		return nil, err
	}
	profile.Portfolio = portfolio

	return &profile, nil
}

func (s *ArtistStore) fetchPortfolio(ctx context.Context, artistID string) ([]models.PortfolioItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, artist_id, image_url, descriptor, analyzed_at
		FROM portfolio_items
		WHERE artist_id = $1
		ORDER BY created_at DESC`,
		artistID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	var items []models.PortfolioItem
	for rows.Next() {
		var (
			item       models.PortfolioItem
			descriptor []byte
			analyzedAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.ArtistID, &item.ImageURL, &descriptor, &analyzedAt); err != nil {
			return nil, apperrors.NewStoreUnavailableError(err)
		}
		if len(descriptor) > 0 {
			var d models.DesignDescriptor
			if err := json.Unmarshal(descriptor, &d); err == nil {
				item.Descriptor = &d
			}
		}
		if analyzedAt.Valid {
			t := analyzedAt.Time
			item.AnalyzedAt = &t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	return items, nil
}

func (s *ArtistStore) fromCache(ctx context.Context, artistID string) *models.ArtistProfile {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, artistCacheKeyPrefix+artistID).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("Artist cache read failed", map[string]interface{}{
				"artistId": artistID,
			})
		}
		return nil
	}

	var profile models.ArtistProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil
	}
	return &profile
}

func (s *ArtistStore) toCache(ctx context.Context, profile *models.ArtistProfile) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, artistCacheKeyPrefix+profile.ID, data, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("Artist cache write failed", map[string]interface{}{
			"artistId": profile.ID,
		})
	}
}

func (s *ArtistStore) invalidate(ctx context.Context, artistID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, artistCacheKeyPrefix+artistID).Err(); err != nil {
		s.logger.WithError(err).Warn("Artist cache invalidation failed", map[string]interface{}{
			"artistId": artistID,
		})
	}
}
