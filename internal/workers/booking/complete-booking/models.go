// internal/workers/booking/complete-booking/models.go
package completebooking

type Input struct {
	BookingID string   `json:"bookingId"`
	By        string   `json:"by"`
	Rating    *float64 `json:"rating,omitempty"`
}

type Output struct {
	BookingID   string `json:"bookingId"`
	Status      string `json:"status"`
	RatingAdded bool   `json:"ratingAdded"`
}
