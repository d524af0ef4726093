// internal/workers/booking/confirm-booking/models.go
package confirmbooking

import "time"

// Date, Price and DurationHours are the explicitly agreed terms; absent
// fields fall back to the negotiation log.
type Input struct {
	BookingID     string     `json:"bookingId"`
	By            string     `json:"by"`
	Date          *time.Time `json:"date,omitempty"`
	Price         *int       `json:"price,omitempty"`
	DurationHours *float64   `json:"durationHours,omitempty"`
}

type Output struct {
	BookingID     string    `json:"bookingId"`
	Status        string    `json:"status"`
	ConfirmedDate time.Time `json:"confirmedDate"`
	Price         int       `json:"price"`
	DurationHours float64   `json:"durationHours"`
}
