package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type memStore struct {
	bookings map[string]*models.BookingRequest
	claims   map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[string]*models.BookingRequest),
		claims:   make(map[string]string),
	}
}

func (m *memStore) Create(ctx context.Context, b *models.BookingRequest) error {
	if _, ok := m.bookings[b.ID]; ok {
		return apperrors.NewDuplicateRequestError(b.CustomerID, b.ArtistID, "")
	}
	clone := *b
	m.bookings[b.ID] = &clone
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.BookingRequest, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperrors.NewBookingNotFoundError(id)
	}
	clone := *b
	return &clone, nil
}

func (m *memStore) Update(ctx context.Context, id string, mutate func(*models.BookingRequest) error) (*models.BookingRequest, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperrors.NewBookingNotFoundError(id)
	}
	clone := *b
	if err := mutate(&clone); err != nil {
		return nil, err
	}
	clone.Version++
	clone.UpdatedAt = time.Now().UTC()
	m.bookings[id] = &clone
	out := clone
	return &out, nil
}

func (m *memStore) ClaimActive(ctx context.Context, customerID, artistID, date, bookingID string) (bool, error) {
	key := customerID + ":" + artistID + ":" + date
	if _, ok := m.claims[key]; ok {
		return false, nil
	}
	m.claims[key] = bookingID
	return true, nil
}

func (m *memStore) ReleaseActive(ctx context.Context, customerID, artistID, date, bookingID string) error {
	key := customerID + ":" + artistID + ":" + date
	if m.claims[key] == bookingID {
		delete(m.claims, key)
	}
	return nil
}

type memSchedule struct {
	// blocked windows by artist and booking
	blocks map[string]map[string][2]time.Time
	fail   error
}

func newMemSchedule() *memSchedule {
	return &memSchedule{blocks: make(map[string]map[string][2]time.Time)}
}

func (m *memSchedule) Block(ctx context.Context, artistID, bookingID string, start, end time.Time) error {
	if m.fail != nil {
		return m.fail
	}
	for _, window := range m.blocks[artistID] {
		if window[0].Before(end) && start.Before(window[1]) {
			return apperrors.NewSlotConflictError(artistID, start.Format(models.DateLayout))
		}
	}
	if m.blocks[artistID] == nil {
		m.blocks[artistID] = make(map[string][2]time.Time)
	}
	m.blocks[artistID][bookingID] = [2]time.Time{start, end}
	return nil
}

func (m *memSchedule) Release(ctx context.Context, artistID, bookingID, date string) error {
	delete(m.blocks[artistID], bookingID)
	return nil
}

type memArtists struct {
	artists     map[string]*models.ArtistProfile
	completions map[string]int
	ratings     map[string][]float64
}

func newMemArtists(artists ...*models.ArtistProfile) *memArtists {
	m := &memArtists{
		artists:     make(map[string]*models.ArtistProfile),
		completions: make(map[string]int),
		ratings:     make(map[string][]float64),
	}
	for _, a := range artists {
		m.artists[a.ID] = a
	}
	return m
}

func (m *memArtists) Get(ctx context.Context, id string) (*models.ArtistProfile, error) {
	a, ok := m.artists[id]
	if !ok {
		return nil, apperrors.NewArtistNotFoundError(id)
	}
	return a, nil
}

func (m *memArtists) RecordCompletion(ctx context.Context, id string, rating *float64) error {
	m.completions[id]++
	if rating != nil {
		m.ratings[id] = append(m.ratings[id], *rating)
	}
	return nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) BookingCreated(ctx context.Context, b *models.BookingRequest, a *models.ArtistProfile) error {
	r.events = append(r.events, "created")
	return nil
}

func (r *recordingNotifier) ResponseAdded(ctx context.Context, b *models.BookingRequest, resp *models.BookingResponse) error {
	r.events = append(r.events, "response:"+string(resp.Kind))
	return nil
}

func (r *recordingNotifier) BookingConfirmed(ctx context.Context, b *models.BookingRequest, a *models.ArtistProfile) error {
	r.events = append(r.events, "confirmed")
	return nil
}

func (r *recordingNotifier) BookingCancelled(ctx context.Context, b *models.BookingRequest, reason string) error {
	r.events = append(r.events, "cancelled")
	return nil
}

func (r *recordingNotifier) BookingCompleted(ctx context.Context, b *models.BookingRequest) error {
	r.events = append(r.events, "completed")
	return nil
}

func testDetails() models.TattooDetails {
	return models.TattooDetails{
		Description:   "Dragon sleeve",
		BodyLocation:  "left arm",
		Size:          models.SizeMedium,
		PreferredDate: time.Date(2026, 9, 15, 13, 0, 0, 0, time.UTC),
		DurationHours: 3,
		Budget:        models.BudgetRange{Min: 30000, Max: 60000},
	}
}

func testFixture(t *testing.T) (*Coordinator, *memStore, *memSchedule, *memArtists, *recordingNotifier) {
	t.Helper()
	store := newMemStore()
	schedule := newMemSchedule()
	artists := newMemArtists(&models.ArtistProfile{
		ID:           "artist-1",
		Name:         "Aoi",
		ContactEmail: "aoi@example.com",
		Prices:       &models.PriceTable{Small: 20000, Medium: 40000, Large: 80000},
	})
	notifier := &recordingNotifier{}
	coordinator := NewCoordinator(store, schedule, artists, notifier, 2, logger.NewTestLogger(t))
	return coordinator, store, schedule, artists, notifier
}

func TestCoordinator_Create(t *testing.T) {
	coordinator, _, _, _, notifier := testFixture(t)

	booking, err := coordinator.Create(context.Background(), "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, int64(1), booking.Version)
	assert.Contains(t, notifier.events, "created")
}

func TestCoordinator_Create_RejectsDuplicateActiveRequest(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)

	_, err := coordinator.Create(context.Background(), "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	_, err = coordinator.Create(context.Background(), "customer-1", "artist-1", testDetails())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateRequest))
}

func TestCoordinator_Create_Validation(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)

	tests := []struct {
		name   string
		mutate func(*models.TattooDetails)
	}{
		{"missing description", func(d *models.TattooDetails) { d.Description = "" }},
		{"missing date", func(d *models.TattooDetails) { d.PreferredDate = time.Time{} }},
		{"too many alternatives", func(d *models.TattooDetails) {
			d.AlternativeDates = make([]time.Time, 4)
		}},
		{"inverted budget", func(d *models.TattooDetails) {
			d.Budget = models.BudgetRange{Min: 50000, Max: 10000}
		}},
		{"allergy without details", func(d *models.TattooDetails) { d.HasAllergy = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := testDetails()
			tt.mutate(&details)
			_, err := coordinator.Create(context.Background(), "customer-1", "artist-1", details)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
		})
	}
}

func TestCoordinator_Respond_Flow(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	booking, err := coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	price := 45000
	updated, err := coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseCounterOffer, ResponseProposal{
		Price:   &price,
		Message: "Larger than quoted, new price attached",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNegotiating, updated.Status)

	updated, err = coordinator.Respond(ctx, booking.ID, "customer-1", models.ResponseAccept, ResponseProposal{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, updated.Status)
	assert.Len(t, updated.Responses, 2)
}

func TestCoordinator_Respond_GuardsTerminalAndStrangers(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	booking, err := coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	_, err = coordinator.Respond(ctx, booking.ID, "someone-else", models.ResponseAccept, ResponseProposal{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))

	_, err = coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseDecline, ResponseProposal{})
	require.NoError(t, err)

	_, err = coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseCounterOffer, ResponseProposal{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTransition))
}

func acceptedBooking(t *testing.T, coordinator *Coordinator) *models.BookingRequest {
	t.Helper()
	ctx := context.Background()

	booking, err := coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	updated, err := coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseAccept, ResponseProposal{})
	require.NoError(t, err)
	return updated
}

func TestCoordinator_Confirm(t *testing.T) {
	coordinator, _, schedule, _, notifier := testFixture(t)
	booking := acceptedBooking(t, coordinator)

	updated, err := coordinator.Confirm(context.Background(), booking.ID, "customer-1", ConfirmOverrides{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, updated.Status)
	require.NotNil(t, updated.Confirmed)
	assert.Equal(t, 40000, updated.Confirmed.Price)
	assert.Equal(t, 3.0, updated.Confirmed.DurationHours)
	assert.Contains(t, notifier.events, "confirmed")

	window, held := schedule.blocks["artist-1"][booking.ID]
	require.True(t, held)
	assert.Equal(t, updated.Confirmed.Date, window[0])
}

func TestCoordinator_Confirm_UsesNegotiatedTerms(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	booking, err := coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	newDate := time.Date(2026, 9, 20, 15, 0, 0, 0, time.UTC)
	price := 55000
	duration := 4.0
	_, err = coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseCounterOffer, ResponseProposal{
		Date:          &newDate,
		Price:         &price,
		DurationHours: &duration,
	})
	require.NoError(t, err)
	_, err = coordinator.Respond(ctx, booking.ID, "customer-1", models.ResponseAccept, ResponseProposal{})
	require.NoError(t, err)

	updated, err := coordinator.Confirm(ctx, booking.ID, "customer-1", ConfirmOverrides{})
	require.NoError(t, err)

	assert.Equal(t, newDate, updated.Confirmed.Date)
	assert.Equal(t, 55000, updated.Confirmed.Price)
	assert.Equal(t, 4.0, updated.Confirmed.DurationHours)
}

func TestCoordinator_Confirm_ExplicitTermsWinOverLog(t *testing.T) {
	coordinator, _, schedule, _, _ := testFixture(t)
	ctx := context.Background()

	booking, err := coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	loggedPrice := 55000
	_, err = coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseCounterOffer, ResponseProposal{
		Price: &loggedPrice,
	})
	require.NoError(t, err)
	_, err = coordinator.Respond(ctx, booking.ID, "customer-1", models.ResponseAccept, ResponseProposal{})
	require.NoError(t, err)

	// The parties settled on an alternative date and a lower price outside
	// the response log.
	agreedDate := time.Date(2026, 9, 22, 10, 0, 0, 0, time.UTC)
	agreedPrice := 50000
	agreedDuration := 2.5
	updated, err := coordinator.Confirm(ctx, booking.ID, "customer-1", ConfirmOverrides{
		Date:          &agreedDate,
		Price:         &agreedPrice,
		DurationHours: &agreedDuration,
	})
	require.NoError(t, err)

	assert.Equal(t, agreedDate, updated.Confirmed.Date)
	assert.Equal(t, agreedPrice, updated.Confirmed.Price)
	assert.Equal(t, agreedDuration, updated.Confirmed.DurationHours)

	window, held := schedule.blocks["artist-1"][booking.ID]
	require.True(t, held)
	assert.Equal(t, agreedDate, window[0])
}

func TestCoordinator_Confirm_RejectsInvalidOverrides(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)
	booking := acceptedBooking(t, coordinator)

	badPrice := -1
	_, err := coordinator.Confirm(context.Background(), booking.ID, "customer-1", ConfirmOverrides{Price: &badPrice})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))

	badDuration := 0.0
	_, err = coordinator.Confirm(context.Background(), booking.ID, "customer-1", ConfirmOverrides{DurationHours: &badDuration})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestCoordinator_Confirm_CommitsWithoutPriceWhenArtistLookupFails(t *testing.T) {
	coordinator, _, _, artists, _ := testFixture(t)
	booking := acceptedBooking(t, coordinator)

	// No price was proposed and the profile read breaks before the estimate.
	delete(artists.artists, "artist-1")

	updated, err := coordinator.Confirm(context.Background(), booking.ID, "customer-1", ConfirmOverrides{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, 0, updated.Confirmed.Price)
}

func TestCoordinator_Confirm_GuardsStatus(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)

	booking, err := coordinator.Create(context.Background(), "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	_, err = coordinator.Confirm(context.Background(), booking.ID, "customer-1", ConfirmOverrides{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTransition))
}

func TestCoordinator_Confirm_OverlappingWindowsConflict(t *testing.T) {
	coordinator, _, schedule, _, _ := testFixture(t)
	ctx := context.Background()

	first := acceptedBooking(t, coordinator)
	_, err := coordinator.Confirm(ctx, first.ID, "customer-1", ConfirmOverrides{})
	require.NoError(t, err)

	// A second customer wants the same artist at an overlapping time.
	details := testDetails()
	details.PreferredDate = details.PreferredDate.Add(time.Hour)
	second, err := coordinator.Create(ctx, "customer-2", "artist-1", details)
	require.NoError(t, err)
	_, err = coordinator.Respond(ctx, second.ID, "artist-1", models.ResponseAccept, ResponseProposal{})
	require.NoError(t, err)

	_, err = coordinator.Confirm(ctx, second.ID, "customer-2", ConfirmOverrides{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSlotConflict))

	// The loser must not be confirmed and the winner keeps its window.
	current, err := coordinator.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, DeriveStatus(current))
	_, held := schedule.blocks["artist-1"][first.ID]
	assert.True(t, held)
}

func TestCoordinator_Confirm_RollsBackSlotsOnUpdateFailure(t *testing.T) {
	coordinator, store, schedule, _, _ := testFixture(t)
	booking := acceptedBooking(t, coordinator)

	// Simulate a concurrent cancel landing between the guard check and the
	// status write.
	_, err := store.Update(context.Background(), booking.ID, func(b *models.BookingRequest) error {
		b.Actions = append(b.Actions, models.BookingAction{
			Kind:      models.ActionCancel,
			By:        "customer-1",
			CreatedAt: time.Now().UTC(),
		})
		b.Status = DeriveStatus(b)
		return nil
	})
	require.NoError(t, err)

	_, err = coordinator.Confirm(context.Background(), booking.ID, "customer-1", ConfirmOverrides{})
	require.Error(t, err)

	_, held := schedule.blocks["artist-1"][booking.ID]
	assert.False(t, held)
}

func TestCoordinator_Cancel_ReleasesOnlyOwnSlots(t *testing.T) {
	coordinator, _, schedule, _, _ := testFixture(t)
	ctx := context.Background()

	first := acceptedBooking(t, coordinator)
	_, err := coordinator.Confirm(ctx, first.ID, "customer-1", ConfirmOverrides{})
	require.NoError(t, err)

	// Another confirmed booking later the same day.
	details := testDetails()
	details.PreferredDate = details.PreferredDate.Add(5 * time.Hour)
	second, err := coordinator.Create(ctx, "customer-2", "artist-1", details)
	require.NoError(t, err)
	_, err = coordinator.Respond(ctx, second.ID, "artist-1", models.ResponseAccept, ResponseProposal{})
	require.NoError(t, err)
	_, err = coordinator.Confirm(ctx, second.ID, "customer-2", ConfirmOverrides{})
	require.NoError(t, err)

	updated, err := coordinator.Cancel(ctx, first.ID, "customer-1", "schedule change")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)

	_, firstHeld := schedule.blocks["artist-1"][first.ID]
	_, secondHeld := schedule.blocks["artist-1"][second.ID]
	assert.False(t, firstHeld)
	assert.True(t, secondHeld)
}

func TestCoordinator_Cancel_TerminalFails(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	booking := acceptedBooking(t, coordinator)
	_, err := coordinator.Cancel(ctx, booking.ID, "customer-1", "")
	require.NoError(t, err)

	_, err = coordinator.Cancel(ctx, booking.ID, "customer-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTransition))
}

func TestCoordinator_Complete(t *testing.T) {
	coordinator, _, _, artists, notifier := testFixture(t)
	ctx := context.Background()

	booking := acceptedBooking(t, coordinator)
	_, err := coordinator.Confirm(ctx, booking.ID, "customer-1", ConfirmOverrides{})
	require.NoError(t, err)

	rating := 5.0
	updated, err := coordinator.Complete(ctx, booking.ID, "artist-1", &rating)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, 1, artists.completions["artist-1"])
	assert.Equal(t, []float64{5.0}, artists.ratings["artist-1"])
	assert.Contains(t, notifier.events, "completed")
}

func TestCoordinator_Complete_RequiresConfirmed(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)

	booking := acceptedBooking(t, coordinator)
	_, err := coordinator.Complete(context.Background(), booking.ID, "artist-1", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTransition))
}

func TestCoordinator_Complete_RejectsOutOfRangeRating(t *testing.T) {
	coordinator, _, _, _, _ := testFixture(t)

	bad := 5.5
	_, err := coordinator.Complete(context.Background(), "whatever", "artist-1", &bad)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestCoordinator_ActiveClaimFreedOnTerminal(t *testing.T) {
	coordinator, store, _, _, _ := testFixture(t)
	ctx := context.Background()

	booking, err := coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)

	_, err = coordinator.Respond(ctx, booking.ID, "artist-1", models.ResponseDecline, ResponseProposal{})
	require.NoError(t, err)

	assert.Empty(t, store.claims)

	// The same pair can book again once the previous request is terminal.
	_, err = coordinator.Create(ctx, "customer-1", "artist-1", testDetails())
	require.NoError(t, err)
}
