// internal/workers/booking/cancel-booking/handler_test.go
package cancelbooking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type fakeCoordinator struct {
	lastReason string
	result     *models.BookingRequest
	err        error
}

func (f *fakeCoordinator) Cancel(ctx context.Context, bookingID, by, reason string) (*models.BookingRequest, error) {
	f.lastReason = reason
	return f.result, f.err
}

func TestHandler_Execute(t *testing.T) {
	coordinator := &fakeCoordinator{result: &models.BookingRequest{
		ID:     "b-1",
		Status: models.StatusCancelled,
	}}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	output, err := handler.Execute(context.Background(), &Input{
		BookingID: "b-1",
		By:        "customer-1",
		Reason:    "schedule change",
	})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", output.Status)
	assert.Equal(t, "schedule change", coordinator.lastReason)
}

func TestHandler_Execute_RequiresBookingID(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeCoordinator{}, logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestHandler_Execute_PropagatesInvalidTransition(t *testing.T) {
	coordinator := &fakeCoordinator{err: apperrors.NewInvalidTransitionError("completed", "cancelled")}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{BookingID: "b-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTransition))
}
