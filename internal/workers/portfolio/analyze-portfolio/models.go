// internal/workers/portfolio/analyze-portfolio/models.go
package analyzeportfolio

import (
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type Input struct {
	ArtistID string `json:"artistId"`
	ItemID   string `json:"itemId"`
	ImageURL string `json:"imageUrl"`
}

type Output struct {
	ArtistID   string                   `json:"artistId"`
	ItemID     string                   `json:"itemId"`
	Descriptor *models.DesignDescriptor `json:"descriptor"`
	Analyzed   bool                     `json:"analyzed"`
}
