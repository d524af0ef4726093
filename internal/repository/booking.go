package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

const (
	bookingKeyPrefix     = "booking:"
	activeClaimKeyPrefix = "booking:active:"

	// Active claims expire on their own as a safety net in case a process
	// dies between claiming and releasing.
	activeClaimTTL = 90 * 24 * time.Hour
)

// BookingStore keeps booking request documents in Redis. Updates are
// conditional on the document version: a lost race surfaces as a conflict
// error for the caller to resolve against re-read state.
type BookingStore struct {
	client *redis.Client
	logger logger.Logger
}

// NewBookingStore creates a booking store over the given Redis client.
func NewBookingStore(client *redis.Client, log logger.Logger) *BookingStore {
	return &BookingStore{client: client, logger: log}
}

func bookingKey(bookingID string) string {
	return bookingKeyPrefix + bookingID
}

func activeClaimKey(customerID, artistID, date string) string {
	return activeClaimKeyPrefix + customerID + ":" + artistID + ":" + date
}

// Create persists a brand-new booking document. The key must not exist yet.
func (s *BookingStore) Create(ctx context.Context, booking *models.BookingRequest) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return apperrors.NewValidationFailedError(err.Error())
	}

	ok, err := s.client.SetNX(ctx, bookingKey(booking.ID), data, 0).Result()
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if !ok {
		return apperrors.NewDuplicateRequestError(booking.CustomerID, booking.ArtistID, booking.Details.PreferredDate.Format(models.DateLayout))
	}

	return nil
}

// Get loads one booking document.
func (s *BookingStore) Get(ctx context.Context, bookingID string) (*models.BookingRequest, error) {
	data, err := s.client.Get(ctx, bookingKey(bookingID)).Result()
	if err == redis.Nil {
		return nil, apperrors.NewBookingNotFoundError(bookingID)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	var booking models.BookingRequest
	if err := json.Unmarshal([]byte(data), &booking); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return &booking, nil
}

// Update applies mutate to the current document and writes it back under
// optimistic concurrency. The key is WATCHed for the whole read-mutate-write
// cycle; a concurrent write aborts the transaction and returns a conflict
// error. No retry happens here so real business conflicts stay visible to
// the caller.
func (s *BookingStore) Update(ctx context.Context, bookingID string, mutate func(*models.BookingRequest) error) (*models.BookingRequest, error) {
	var updated *models.BookingRequest

	key := bookingKey(bookingID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return apperrors.NewBookingNotFoundError(bookingID)
		}
		if err != nil {
			return apperrors.NewStoreUnavailableError(err)
		}

		var booking models.BookingRequest
		if err := json.Unmarshal([]byte(data), &booking); err != nil {
			return apperrors.NewStoreUnavailableError(err)
		}

		if err := mutate(&booking); err != nil {
			return err
		}

		booking.Version++
		booking.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(&booking)
		if err != nil {
			return apperrors.NewStoreUnavailableError(err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &booking
		return nil
	}, key)

	if err == redis.TxFailedErr {
		return nil, apperrors.NewResponseConflictError(bookingID)
	}
	if err != nil {
		return nil, apperrors.AsStandard(err)
	}

	return updated, nil
}

// ClaimActive marks that a customer has an active request against an artist
// for a given day. Returns false when a claim already exists.
func (s *BookingStore) ClaimActive(ctx context.Context, customerID, artistID, date, bookingID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, activeClaimKey(customerID, artistID, date), bookingID, activeClaimTTL).Result()
	if err != nil {
		return false, apperrors.NewStoreUnavailableError(err)
	}
	return ok, nil
}

// ReleaseActive drops the active-request claim. Only the claim owned by
// bookingID is released so a replayed release cannot free a newer claim.
func (s *BookingStore) ReleaseActive(ctx context.Context, customerID, artistID, date, bookingID string) error {
	key := activeClaimKey(customerID, artistID, date)

	owner, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if owner != bookingID {
		return nil
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}
