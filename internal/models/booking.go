package models

import "time"

// BookingStatus is the lifecycle state of a booking request. It is always
// derivable from the response and action logs; it is never set directly.
type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusNegotiating BookingStatus = "negotiating"
	StatusAccepted    BookingStatus = "accepted"
	StatusDeclined    BookingStatus = "declined"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCompleted   BookingStatus = "completed"
	StatusCancelled   BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusDeclined, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ResponseKind is the closed set of negotiation response types.
type ResponseKind string

const (
	ResponseAccept       ResponseKind = "accept"
	ResponseDecline      ResponseKind = "decline"
	ResponseCounterOffer ResponseKind = "counter_offer"
	ResponseRequestInfo  ResponseKind = "request_info"
)

// Valid reports whether k is a known response kind.
func (k ResponseKind) Valid() bool {
	switch k {
	case ResponseAccept, ResponseDecline, ResponseCounterOffer, ResponseRequestInfo:
		return true
	}
	return false
}

// ActionKind is the closed set of coordinator-driven lifecycle actions.
type ActionKind string

const (
	ActionConfirm  ActionKind = "confirm"
	ActionCancel   ActionKind = "cancel"
	ActionComplete ActionKind = "complete"
)

// TattooDetails is the customer's request payload.
type TattooDetails struct {
	Description      string      `json:"description"`
	BodyLocation     string      `json:"bodyLocation"`
	Size             SizeClass   `json:"size"`
	PreferredDate    time.Time   `json:"preferredDate"`
	AlternativeDates []time.Time `json:"alternativeDates,omitempty"` // at most three
	DurationHours    float64     `json:"durationHours"`
	Budget           BudgetRange `json:"budget"`
	HasAllergy       bool        `json:"hasAllergy"`
	AllergyDetails   string      `json:"allergyDetails,omitempty"`
	Notes            string      `json:"notes,omitempty"`
}

// BookingResponse is one appended negotiation entry. Entries are never
// mutated or removed once created.
type BookingResponse struct {
	ID               string       `json:"id"`
	ResponderID      string       `json:"responderId"`
	Kind             ResponseKind `json:"kind"`
	ProposedDate     *time.Time   `json:"proposedDate,omitempty"`
	ProposedPrice    *int         `json:"proposedPrice,omitempty"`
	ProposedDuration *float64     `json:"proposedDuration,omitempty"`
	Message          string       `json:"message"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// BookingAction is one coordinator-driven lifecycle action (confirm,
// cancel, complete). Like responses, actions are append-only.
type BookingAction struct {
	Kind      ActionKind `json:"kind"`
	By        string     `json:"by"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ConfirmedTerms are the final date/price/duration fixed at confirmation.
type ConfirmedTerms struct {
	Date          time.Time `json:"date"`
	Price         int       `json:"price"`
	DurationHours float64   `json:"durationHours"`
}

// BookingRequest is the root booking document. Status is a cached
// derivation from Responses and Actions; Version is the optimistic
// concurrency token for conditional writes.
type BookingRequest struct {
	ID         string            `json:"id"`
	CustomerID string            `json:"customerId"`
	ArtistID   string            `json:"artistId"`
	Details    TattooDetails     `json:"details"`
	Status     BookingStatus     `json:"status"`
	Responses  []BookingResponse `json:"responses"`
	Actions    []BookingAction   `json:"actions"`
	Confirmed  *ConfirmedTerms   `json:"confirmed,omitempty"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ConversationMessage is the payload handed to the messaging collaborator.
type ConversationMessage struct {
	ChannelID string                 `json:"channelId"`
	SenderID  string                 `json:"senderId"`
	Text      string                 `json:"text"`
	Kind      string                 `json:"kind"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
