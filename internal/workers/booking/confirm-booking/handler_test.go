// internal/workers/booking/confirm-booking/handler_test.go
package confirmbooking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/booking"
	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type fakeCoordinator struct {
	result *models.BookingRequest
	err    error

	gotBookingID string
	gotBy        string
	gotAgreed    booking.ConfirmOverrides
}

func (f *fakeCoordinator) Confirm(ctx context.Context, bookingID, by string, agreed booking.ConfirmOverrides) (*models.BookingRequest, error) {
	f.gotBookingID = bookingID
	f.gotBy = by
	f.gotAgreed = agreed
	return f.result, f.err
}

func TestHandler_Execute(t *testing.T) {
	date := time.Date(2026, 9, 15, 13, 0, 0, 0, time.UTC)
	coordinator := &fakeCoordinator{result: &models.BookingRequest{
		ID:     "b-1",
		Status: models.StatusConfirmed,
		Confirmed: &models.ConfirmedTerms{
			Date:          date,
			Price:         40000,
			DurationHours: 3,
		},
	}}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	output, err := handler.Execute(context.Background(), &Input{BookingID: "b-1", By: "customer-1"})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", output.Status)
	assert.Equal(t, date, output.ConfirmedDate)
	assert.Equal(t, 40000, output.Price)
	assert.Equal(t, 3.0, output.DurationHours)
}

func TestHandler_Execute_ForwardsAgreedTerms(t *testing.T) {
	date := time.Date(2026, 9, 18, 11, 0, 0, 0, time.UTC)
	price := 50000
	duration := 2.5
	coordinator := &fakeCoordinator{result: &models.BookingRequest{
		ID:     "b-1",
		Status: models.StatusConfirmed,
		Confirmed: &models.ConfirmedTerms{
			Date:          date,
			Price:         price,
			DurationHours: duration,
		},
	}}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	output, err := handler.Execute(context.Background(), &Input{
		BookingID:     "b-1",
		By:            "customer-1",
		Date:          &date,
		Price:         &price,
		DurationHours: &duration,
	})
	require.NoError(t, err)

	require.NotNil(t, coordinator.gotAgreed.Date)
	assert.Equal(t, date, *coordinator.gotAgreed.Date)
	require.NotNil(t, coordinator.gotAgreed.Price)
	assert.Equal(t, price, *coordinator.gotAgreed.Price)
	require.NotNil(t, coordinator.gotAgreed.DurationHours)
	assert.Equal(t, duration, *coordinator.gotAgreed.DurationHours)
	assert.Equal(t, date, output.ConfirmedDate)
	assert.Equal(t, price, output.Price)
}

func TestHandler_Execute_RequiresBookingID(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeCoordinator{}, logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestHandler_Execute_PropagatesSlotConflict(t *testing.T) {
	coordinator := &fakeCoordinator{err: apperrors.NewSlotConflictError("artist-1", "2026-09-15")}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{BookingID: "b-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSlotConflict))
}
