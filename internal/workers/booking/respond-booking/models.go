// internal/workers/booking/respond-booking/models.go
package respondbooking

import "time"

type Input struct {
	BookingID        string     `json:"bookingId"`
	ResponderID      string     `json:"responderId"`
	Kind             string     `json:"kind"`
	ProposedDate     *time.Time `json:"proposedDate,omitempty"`
	ProposedPrice    *int       `json:"proposedPrice,omitempty"`
	ProposedDuration *float64   `json:"proposedDuration,omitempty"`
	Message          string     `json:"message,omitempty"`
}

type Output struct {
	BookingID     string `json:"bookingId"`
	Status        string `json:"status"`
	ResponseCount int    `json:"responseCount"`
}
