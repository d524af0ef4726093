// internal/workers/booking/create-booking/models.go
package createbooking

import (
	"time"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type Input struct {
	CustomerID string               `json:"customerId"`
	ArtistID   string               `json:"artistId"`
	Details    models.TattooDetails `json:"details"`
}

type Output struct {
	BookingID string    `json:"bookingId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
