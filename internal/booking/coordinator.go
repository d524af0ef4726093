package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/metrics"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

// Store is the booking document store the coordinator mutates through.
type Store interface {
	Create(ctx context.Context, booking *models.BookingRequest) error
	Get(ctx context.Context, bookingID string) (*models.BookingRequest, error)
	Update(ctx context.Context, bookingID string, mutate func(*models.BookingRequest) error) (*models.BookingRequest, error)
	ClaimActive(ctx context.Context, customerID, artistID, date, bookingID string) (bool, error)
	ReleaseActive(ctx context.Context, customerID, artistID, date, bookingID string) error
}

// Schedule blocks and releases artist time windows.
type Schedule interface {
	Block(ctx context.Context, artistID, bookingID string, start, end time.Time) error
	Release(ctx context.Context, artistID, bookingID, date string) error
}

// Artists resolves artist profiles and records completions.
type Artists interface {
	Get(ctx context.Context, artistID string) (*models.ArtistProfile, error)
	RecordCompletion(ctx context.Context, artistID string, rating *float64) error
}

// Notifier delivers booking events to the parties. Delivery is best-effort:
// the coordinator logs failures and never lets them abort a state change.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *models.BookingRequest, artist *models.ArtistProfile) error
	ResponseAdded(ctx context.Context, booking *models.BookingRequest, response *models.BookingResponse) error
	BookingConfirmed(ctx context.Context, booking *models.BookingRequest, artist *models.ArtistProfile) error
	BookingCancelled(ctx context.Context, booking *models.BookingRequest, reason string) error
	BookingCompleted(ctx context.Context, booking *models.BookingRequest) error
}

// Coordinator owns every booking mutation. All writes funnel through it so
// the derived status, the schedule claims and the active-request guard stay
// consistent. It never retries a lost race internally; conflicts go back to
// the caller with current state.
type Coordinator struct {
	store    Store
	schedule Schedule
	artists  Artists
	notifier Notifier
	logger   logger.Logger

	defaultSessionHours float64
}

// NewCoordinator wires a coordinator. notifier may be nil to disable
// notifications entirely.
func NewCoordinator(store Store, schedule Schedule, artists Artists, notifier Notifier, defaultSessionHours float64, log logger.Logger) *Coordinator {
	return &Coordinator{
		store:               store,
		schedule:            schedule,
		artists:             artists,
		notifier:            notifier,
		logger:              log,
		defaultSessionHours: defaultSessionHours,
	}
}

// Create validates and persists a new booking request in pending status.
// One active request per (customer, artist, preferred day) is enforced
// through an atomic claim taken before the document is written.
func (c *Coordinator) Create(ctx context.Context, customerID, artistID string, details models.TattooDetails) (*models.BookingRequest, error) {
	if err := validateDetails(customerID, artistID, &details); err != nil {
		return nil, err
	}

	artist, err := c.artists.Get(ctx, artistID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &models.BookingRequest{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		ArtistID:   artistID,
		Details:    details,
		Status:     models.StatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	date := details.PreferredDate.Format(models.DateLayout)
	claimed, err := c.store.ClaimActive(ctx, customerID, artistID, date, booking.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperrors.NewDuplicateRequestError(customerID, artistID, date)
	}

	if err := c.store.Create(ctx, booking); err != nil {
		if relErr := c.store.ReleaseActive(ctx, customerID, artistID, date, booking.ID); relErr != nil {
			c.logger.WithError(relErr).Warn("Active claim release failed after create error", map[string]interface{}{
				"bookingId": booking.ID,
			})
		}
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(models.StatusPending)).Inc()
	c.notify(ctx, "created", func() error {
		return c.notifier.BookingCreated(ctx, booking, artist)
	})

	return booking, nil
}

// Get returns the current booking document.
func (c *Coordinator) Get(ctx context.Context, bookingID string) (*models.BookingRequest, error) {
	return c.store.Get(ctx, bookingID)
}

// Respond appends one negotiation response. Responses are only legal while
// the request is pending or negotiating; the status cache is re-derived
// from the logs after the append.
func (c *Coordinator) Respond(ctx context.Context, bookingID, responderID string, kind models.ResponseKind, proposal ResponseProposal) (*models.BookingRequest, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown response kind: %s", kind))
	}
	if responderID == "" {
		return nil, apperrors.NewValidationFailedError("responderId is required")
	}

	response := &models.BookingResponse{
		ID:               uuid.New().String(),
		ResponderID:      responderID,
		Kind:             kind,
		ProposedDate:     proposal.Date,
		ProposedPrice:    proposal.Price,
		ProposedDuration: proposal.DurationHours,
		Message:          proposal.Message,
		CreatedAt:        time.Now().UTC(),
	}

	updated, err := c.store.Update(ctx, bookingID, func(b *models.BookingRequest) error {
		status := DeriveStatus(b)
		if !CanRespond(status) {
			return apperrors.NewInvalidTransitionError(string(status), "respond")
		}
		if responderID != b.CustomerID && responderID != b.ArtistID {
			return apperrors.NewValidationFailedError("responder is not a party to this booking")
		}
		b.Responses = append(b.Responses, *response)
		b.Status = DeriveStatus(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(updated.Status)).Inc()
	c.notify(ctx, "response", func() error {
		return c.notifier.ResponseAdded(ctx, updated, response)
	})

	if updated.Status.IsTerminal() {
		c.releaseActive(ctx, updated)
	}

	return updated, nil
}

// Confirm fixes the final terms of an accepted request and blocks the
// artist's schedule for the confirmed window. This is the only transition
// that mutates schedule slots. The slots are claimed first; if the status
// write then loses a race or fails a guard, the claim is rolled back.
// Terms the parties settled explicitly arrive in agreed and take
// precedence over whatever the negotiation log resolves to.
func (c *Coordinator) Confirm(ctx context.Context, bookingID, by string, agreed ConfirmOverrides) (*models.BookingRequest, error) {
	if err := agreed.validate(); err != nil {
		return nil, err
	}

	current, err := c.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := guardAction(DeriveStatus(current), models.ActionConfirm); err != nil {
		return nil, err
	}

	terms := resolveTerms(current, c.defaultSessionHours)
	agreed.apply(&terms)
	if terms.Price == 0 {
		if artist, aerr := c.artists.Get(ctx, current.ArtistID); aerr == nil {
			terms.Price = estimatePrice(artist, current.Details.Size, terms.DurationHours)
		} else {
			c.logger.WithError(aerr).Warn("Price estimate skipped, artist lookup failed", map[string]interface{}{
				"bookingId": bookingID,
				"artistId":  current.ArtistID,
			})
		}
	}

	start := terms.Date
	end := start.Add(time.Duration(terms.DurationHours * float64(time.Hour)))

	if err := c.schedule.Block(ctx, current.ArtistID, bookingID, start, end); err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeSlotConflict) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	action := models.BookingAction{
		Kind:      models.ActionConfirm,
		By:        by,
		CreatedAt: time.Now().UTC(),
	}

	updated, err := c.store.Update(ctx, bookingID, func(b *models.BookingRequest) error {
		if gerr := guardAction(DeriveStatus(b), models.ActionConfirm); gerr != nil {
			return gerr
		}
		b.Actions = append(b.Actions, action)
		b.Confirmed = &terms
		b.Status = DeriveStatus(b)
		return nil
	})
	if err != nil {
		date := start.Format(models.DateLayout)
		if relErr := c.schedule.Release(ctx, current.ArtistID, bookingID, date); relErr != nil {
			c.logger.WithError(relErr).Error("Slot release failed after confirm rollback", map[string]interface{}{
				"bookingId": bookingID,
				"artistId":  current.ArtistID,
				"date":      date,
			})
		}
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(models.StatusConfirmed)).Inc()
	c.notify(ctx, "confirmed", func() error {
		artist, aerr := c.artists.Get(ctx, updated.ArtistID)
		if aerr != nil {
			return aerr
		}
		return c.notifier.BookingConfirmed(ctx, updated, artist)
	})

	return updated, nil
}

// Cancel moves any non-terminal request to cancelled. A previously
// confirmed request releases only the slots it holds; claims by other
// bookings on the same day are untouched.
func (c *Coordinator) Cancel(ctx context.Context, bookingID, by, reason string) (*models.BookingRequest, error) {
	action := models.BookingAction{
		Kind:      models.ActionCancel,
		By:        by,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}

	var wasConfirmed bool
	updated, err := c.store.Update(ctx, bookingID, func(b *models.BookingRequest) error {
		status := DeriveStatus(b)
		if gerr := guardAction(status, models.ActionCancel); gerr != nil {
			return gerr
		}
		wasConfirmed = status == models.StatusConfirmed
		b.Actions = append(b.Actions, action)
		b.Status = DeriveStatus(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasConfirmed && updated.Confirmed != nil {
		date := updated.Confirmed.Date.Format(models.DateLayout)
		if relErr := c.schedule.Release(ctx, updated.ArtistID, bookingID, date); relErr != nil {
			c.logger.WithError(relErr).Error("Slot release failed on cancel", map[string]interface{}{
				"bookingId": bookingID,
				"artistId":  updated.ArtistID,
				"date":      date,
			})
		}
	}

	c.releaseActive(ctx, updated)

	metrics.BookingTransitions.WithLabelValues(string(models.StatusCancelled)).Inc()
	c.notify(ctx, "cancelled", func() error {
		return c.notifier.BookingCancelled(ctx, updated, reason)
	})

	return updated, nil
}

// Complete closes a confirmed request after the session happened and folds
// an optional customer rating into the artist's aggregate.
func (c *Coordinator) Complete(ctx context.Context, bookingID, by string, rating *float64) (*models.BookingRequest, error) {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return nil, apperrors.NewValidationFailedError("rating must be between 0 and 5")
	}

	action := models.BookingAction{
		Kind:      models.ActionComplete,
		By:        by,
		CreatedAt: time.Now().UTC(),
	}

	updated, err := c.store.Update(ctx, bookingID, func(b *models.BookingRequest) error {
		if gerr := guardAction(DeriveStatus(b), models.ActionComplete); gerr != nil {
			return gerr
		}
		b.Actions = append(b.Actions, action)
		b.Status = DeriveStatus(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.artists.RecordCompletion(ctx, updated.ArtistID, rating); err != nil {
		c.logger.WithError(err).Warn("Completion not folded into artist aggregate", map[string]interface{}{
			"bookingId": bookingID,
			"artistId":  updated.ArtistID,
		})
	}

	c.releaseActive(ctx, updated)

	metrics.BookingTransitions.WithLabelValues(string(models.StatusCompleted)).Inc()
	c.notify(ctx, "completed", func() error {
		return c.notifier.BookingCompleted(ctx, updated)
	})

	return updated, nil
}

// ResponseProposal carries the optional negotiated fields of a response.
type ResponseProposal struct {
	Date          *time.Time
	Price         *int
	DurationHours *float64
	Message       string
}

// ConfirmOverrides carries terms the parties agreed on explicitly, for
// example one of the alternative dates or a price settled outside the
// response log. Nil fields fall back to the negotiation log.
type ConfirmOverrides struct {
	Date          *time.Time
	Price         *int
	DurationHours *float64
}

func (o ConfirmOverrides) validate() error {
	switch {
	case o.Date != nil && o.Date.IsZero():
		return apperrors.NewValidationFailedError("date must not be zero")
	case o.Price != nil && *o.Price < 0:
		return apperrors.NewValidationFailedError("price must not be negative")
	case o.DurationHours != nil && *o.DurationHours <= 0:
		return apperrors.NewValidationFailedError("durationHours must be positive")
	}
	return nil
}

func (o ConfirmOverrides) apply(terms *models.ConfirmedTerms) {
	if o.Date != nil {
		terms.Date = *o.Date
	}
	if o.Price != nil {
		terms.Price = *o.Price
	}
	if o.DurationHours != nil {
		terms.DurationHours = *o.DurationHours
	}
}

func (c *Coordinator) notify(ctx context.Context, event string, send func() error) {
	if c.notifier == nil {
		return
	}
	if err := send(); err != nil {
		c.logger.WithError(err).Warn("Notification delivery failed", map[string]interface{}{
			"event": event,
		})
	}
}

func (c *Coordinator) releaseActive(ctx context.Context, b *models.BookingRequest) {
	date := b.Details.PreferredDate.Format(models.DateLayout)
	if err := c.store.ReleaseActive(ctx, b.CustomerID, b.ArtistID, date, b.ID); err != nil {
		c.logger.WithError(err).Warn("Active claim release failed", map[string]interface{}{
			"bookingId": b.ID,
		})
	}
}

// resolveTerms folds the negotiation log over the original request: the
// latest proposed date, price and duration win, falling back to the
// customer's original ask.
func resolveTerms(b *models.BookingRequest, defaultSessionHours float64) models.ConfirmedTerms {
	terms := models.ConfirmedTerms{
		Date:          b.Details.PreferredDate,
		DurationHours: b.Details.DurationHours,
	}
	if terms.DurationHours <= 0 {
		terms.DurationHours = defaultSessionHours
	}

	for _, r := range b.Responses {
		if r.ProposedDate != nil {
			terms.Date = *r.ProposedDate
		}
		if r.ProposedPrice != nil {
			terms.Price = *r.ProposedPrice
		}
		if r.ProposedDuration != nil {
			terms.DurationHours = *r.ProposedDuration
		}
	}

	return terms
}

func estimatePrice(artist *models.ArtistProfile, size models.SizeClass, durationHours float64) int {
	if artist.Prices != nil {
		return artist.Prices.ForSize(size)
	}
	return int(float64(artist.HourlyRate) * durationHours)
}

func validateDetails(customerID, artistID string, details *models.TattooDetails) error {
	switch {
	case customerID == "":
		return apperrors.NewValidationFailedError("customerId is required")
	case artistID == "":
		return apperrors.NewValidationFailedError("artistId is required")
	case details.Description == "":
		return apperrors.NewValidationFailedError("description is required")
	case details.PreferredDate.IsZero():
		return apperrors.NewValidationFailedError("preferredDate is required")
	case len(details.AlternativeDates) > 3:
		return apperrors.NewValidationFailedError("at most three alternative dates are allowed")
	case details.Budget.Min < 0 || details.Budget.Max < details.Budget.Min:
		return apperrors.NewValidationFailedError("budget range is invalid")
	case details.HasAllergy && details.AllergyDetails == "":
		return apperrors.NewValidationFailedError("allergyDetails is required when hasAllergy is set")
	}
	return nil
}
