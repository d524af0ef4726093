package models

// BudgetRange is a customer's inclusive price bracket.
type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Midpoint returns the center of the bracket.
func (b BudgetRange) Midpoint() float64 {
	return float64(b.Min+b.Max) / 2.0
}

// Width returns the bracket span.
func (b BudgetRange) Width() float64 {
	return float64(b.Max - b.Min)
}

// Contains reports whether price falls inside the bracket (inclusive).
func (b BudgetRange) Contains(price float64) bool {
	return price >= float64(b.Min) && price <= float64(b.Max)
}

// CustomerQuery is a single matching request. It is ephemeral: constructed
// per search and never persisted as a first-class entity.
type CustomerQuery struct {
	CustomerID  string            `json:"customerId"`
	Descriptor  *DesignDescriptor `json:"descriptor,omitempty"`
	Location    Coordinate        `json:"location"`
	MaxRadiusKm float64           `json:"maxRadiusKm"`
	Budget      BudgetRange       `json:"budget"`
	Size        SizeClass         `json:"size"`
}

// SubScores are the four independent components of a match score, each
// clamped to [0,1].
type SubScores struct {
	Design   float64 `json:"design"`
	Artist   float64 `json:"artist"`
	Price    float64 `json:"price"`
	Distance float64 `json:"distance"`
}

// MatchResult is one scored (query, artist) pair.
type MatchResult struct {
	ArtistID       string          `json:"artistId"`
	ArtistName     string          `json:"artistName"`
	Score          float64         `json:"score"` // convex combination of SubScores
	SubScores      SubScores       `json:"subScores"`
	DistanceKm     float64         `json:"distanceKm"`
	EstimatedPrice int             `json:"estimatedPrice"`
	TopPortfolio   []PortfolioItem `json:"topPortfolio,omitempty"` // at most three
	Reasons        []string        `json:"reasons,omitempty"`      // at most three
}
