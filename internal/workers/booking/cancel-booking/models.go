// internal/workers/booking/cancel-booking/models.go
package cancelbooking

type Input struct {
	BookingID string `json:"bookingId"`
	By        string `json:"by"`
	Reason    string `json:"reason,omitempty"`
}

type Output struct {
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
}
