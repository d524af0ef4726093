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

const scheduleKeyPrefix = "schedule:"

// ScheduleStore keeps per-artist, per-day schedule documents in Redis.
// Blocking and releasing a window is transactional over the whole day
// document, so two confirms racing for overlapping windows cannot both
// succeed.
type ScheduleStore struct {
	client       *redis.Client
	dayStartHour int
	dayEndHour   int
	logger       logger.Logger
}

// NewScheduleStore creates a schedule store. dayStartHour and dayEndHour
// bound the synthesized open day used when no document exists yet.
func NewScheduleStore(client *redis.Client, dayStartHour, dayEndHour int, log logger.Logger) *ScheduleStore {
	return &ScheduleStore{
		client:       client,
		dayStartHour: dayStartHour,
		dayEndHour:   dayEndHour,
		logger:       log,
	}
}

func scheduleKey(artistID, date string) string {
	return scheduleKeyPrefix + artistID + ":" + date
}

// Get loads the schedule day, synthesizing a fully open day when the artist
// has no document for that date yet.
func (s *ScheduleStore) Get(ctx context.Context, artistID, date string) (*models.ScheduleDay, error) {
	data, err := s.client.Get(ctx, scheduleKey(artistID, date)).Result()
	if err == redis.Nil {
		return s.openDay(artistID, date)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	var day models.ScheduleDay
	if err := json.Unmarshal([]byte(data), &day); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return &day, nil
}

// Block claims every slot overlapping [start, end) for a booking. The day
// document is WATCHed for the whole cycle: when any overlapping slot is
// unavailable or already booked the claim fails with a slot conflict, and a
// concurrent write to the same day surfaces as a conflict too.
func (s *ScheduleStore) Block(ctx context.Context, artistID, bookingID string, start, end time.Time) error {
	date := start.Format(models.DateLayout)
	key := scheduleKey(artistID, date)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		day, err := s.loadOrOpen(ctx, tx, artistID, date)
		if err != nil {
			return err
		}

		claimed := 0
		for i := range day.Slots {
			if !day.Slots[i].Overlaps(start, end) {
				continue
			}
			if !day.Slots[i].Available || day.Slots[i].Booked {
				return apperrors.NewSlotConflictError(artistID, date)
			}
			day.Slots[i].Booked = true
			day.Slots[i].BookingID = bookingID
			claimed++
		}
		if claimed == 0 {
			return apperrors.NewSlotConflictError(artistID, date)
		}

		day.Version++
		return s.write(ctx, tx, key, day)
	}, key)

	return s.mapTxError(err, artistID, date)
}

// Release frees every slot held by a booking on the given date. Releasing a
// date the booking holds nothing on is a no-op, so a replayed cancel is
// harmless.
func (s *ScheduleStore) Release(ctx context.Context, artistID, bookingID, date string) error {
	key := scheduleKey(artistID, date)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return apperrors.NewStoreUnavailableError(err)
		}

		var day models.ScheduleDay
		if err := json.Unmarshal([]byte(data), &day); err != nil {
			return apperrors.NewStoreUnavailableError(err)
		}

		released := 0
		for i := range day.Slots {
			if day.Slots[i].Booked && day.Slots[i].BookingID == bookingID {
				day.Slots[i].Booked = false
				day.Slots[i].BookingID = ""
				released++
			}
		}
		if released == 0 {
			return nil
		}

		day.Version++
		return s.write(ctx, tx, key, &day)
	}, key)

	return s.mapTxError(err, artistID, date)
}

// SetAvailability overwrites the availability flags of a day outside of any
// booked slot. Booked slots keep their claims.
func (s *ScheduleStore) SetAvailability(ctx context.Context, artistID, date string, available bool) error {
	key := scheduleKey(artistID, date)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		day, err := s.loadOrOpen(ctx, tx, artistID, date)
		if err != nil {
			return err
		}

		for i := range day.Slots {
			if !day.Slots[i].Booked {
				day.Slots[i].Available = available
			}
		}

		day.Version++
		return s.write(ctx, tx, key, day)
	}, key)

	return s.mapTxError(err, artistID, date)
}

func (s *ScheduleStore) loadOrOpen(ctx context.Context, tx *redis.Tx, artistID, date string) (*models.ScheduleDay, error) {
	data, err := tx.Get(ctx, scheduleKey(artistID, date)).Result()
	if err == redis.Nil {
		return s.openDay(artistID, date)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	var day models.ScheduleDay
	if err := json.Unmarshal([]byte(data), &day); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return &day, nil
}

func (s *ScheduleStore) write(ctx context.Context, tx *redis.Tx, key string, day *models.ScheduleDay) error {
	payload, err := json.Marshal(day)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, 0)
		return nil
	})
	return err
}

func (s *ScheduleStore) mapTxError(err error, artistID, date string) error {
	if err == nil {
		return nil
	}
	if err == redis.TxFailedErr {
		return apperrors.NewSlotConflictError(artistID, date)
	}
	return apperrors.AsStandard(err)
}

// openDay synthesizes hourly open slots between the configured day bounds.
func (s *ScheduleStore) openDay(artistID, date string) (*models.ScheduleDay, error) {
	dayStart, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("date must be " + models.DateLayout)
	}

	var slots []models.ScheduleSlot
	for h := s.dayStartHour; h < s.dayEndHour; h++ {
		start := dayStart.Add(time.Duration(h) * time.Hour)
		slots = append(slots, models.ScheduleSlot{
			Start:     start,
			End:       start.Add(time.Hour),
			Available: true,
		})
	}

	return &models.ScheduleDay{
		ArtistID: artistID,
		Date:     date,
		Slots:    slots,
	}, nil
}
