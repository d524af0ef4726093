// internal/workers/booking/respond-booking/handler_test.go
package respondbooking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/booking"
	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type fakeCoordinator struct {
	lastKind     models.ResponseKind
	lastProposal booking.ResponseProposal
	result       *models.BookingRequest
	err          error
}

func (f *fakeCoordinator) Respond(ctx context.Context, bookingID, responderID string, kind models.ResponseKind, proposal booking.ResponseProposal) (*models.BookingRequest, error) {
	f.lastKind = kind
	f.lastProposal = proposal
	return f.result, f.err
}

func TestHandler_Execute(t *testing.T) {
	coordinator := &fakeCoordinator{result: &models.BookingRequest{
		ID:     "b-1",
		Status: models.StatusNegotiating,
		Responses: []models.BookingResponse{
			{ID: "r-1", Kind: models.ResponseCounterOffer},
		},
	}}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	price := 45000
	output, err := handler.Execute(context.Background(), &Input{
		BookingID:     "b-1",
		ResponderID:   "artist-1",
		Kind:          "counter_offer",
		ProposedPrice: &price,
		Message:       "New price attached",
	})
	require.NoError(t, err)

	assert.Equal(t, "negotiating", output.Status)
	assert.Equal(t, 1, output.ResponseCount)
	assert.Equal(t, models.ResponseCounterOffer, coordinator.lastKind)
	assert.Equal(t, 45000, *coordinator.lastProposal.Price)
}

func TestHandler_Execute_PropagatesConflict(t *testing.T) {
	coordinator := &fakeCoordinator{err: apperrors.NewResponseConflictError("b-1")}
	handler := NewHandler(LoadConfig(), coordinator, logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{
		BookingID:   "b-1",
		ResponderID: "artist-1",
		Kind:        "accept",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResponseConflict))
}
