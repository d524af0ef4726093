// internal/workers/matching/find-matches/models.go
package findmatches

import (
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type Input struct {
	CustomerID  string                   `json:"customerId"`
	Descriptor  *models.DesignDescriptor `json:"descriptor,omitempty"`
	Location    models.Coordinate        `json:"location"`
	MaxRadiusKm float64                  `json:"maxRadiusKm"`
	Budget      models.BudgetRange       `json:"budget"`
	Size        models.SizeClass         `json:"size"`
}

type Output struct {
	Matches    []models.MatchResult `json:"matches"`
	MatchCount int                  `json:"matchCount"`
	HasMatches bool                 `json:"hasMatches"`
}
