// Package booking implements the negotiation core: status derivation from
// the append-only response and action logs, and the coordinator that owns
// every booking mutation.
package booking

import (
	"fmt"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

// DeriveStatus replays the response and action logs and returns the status
// they imply. The stored Status field is only a cache of this derivation;
// replaying the same logs always yields the same status.
//
// Responses are replayed first. The coordinator only appends responses
// while the request is pending or negotiating, so every response precedes
// every action chronologically and the split replay preserves order.
func DeriveStatus(b *models.BookingRequest) models.BookingStatus {
	status := models.StatusPending

	for _, r := range b.Responses {
		switch r.Kind {
		case models.ResponseAccept:
			status = models.StatusAccepted
		case models.ResponseDecline:
			status = models.StatusDeclined
		case models.ResponseCounterOffer, models.ResponseRequestInfo:
			status = models.StatusNegotiating
		}
	}

	for _, a := range b.Actions {
		switch a.Kind {
		case models.ActionConfirm:
			if status == models.StatusAccepted {
				status = models.StatusConfirmed
			}
		case models.ActionCancel:
			if !status.IsTerminal() {
				status = models.StatusCancelled
			}
		case models.ActionComplete:
			if status == models.StatusConfirmed {
				status = models.StatusCompleted
			}
		}
	}

	return status
}

// CanRespond reports whether a negotiation response may be appended in the
// current status.
func CanRespond(status models.BookingStatus) bool {
	return status == models.StatusPending || status == models.StatusNegotiating
}

// guardAction validates that an action is legal from the current status.
func guardAction(status models.BookingStatus, action models.ActionKind) error {
	switch action {
	case models.ActionConfirm:
		if status != models.StatusAccepted {
			return apperrors.NewInvalidTransitionError(string(status), string(models.StatusConfirmed))
		}
	case models.ActionCancel:
		if status.IsTerminal() {
			return apperrors.NewInvalidTransitionError(string(status), string(models.StatusCancelled))
		}
	case models.ActionComplete:
		if status != models.StatusConfirmed {
			return apperrors.NewInvalidTransitionError(string(status), string(models.StatusCompleted))
		}
	default:
		return apperrors.NewValidationFailedError(fmt.Sprintf("unknown action: %s", action))
	}
	return nil
}
