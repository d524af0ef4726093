package models

import "time"

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SizeClass buckets a tattoo by physical size; it selects the price tier.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// PriceTable holds an artist's per-size flat prices.
type PriceTable struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
}

// Average returns the mean tier price.
func (p PriceTable) Average() float64 {
	return float64(p.Small+p.Medium+p.Large) / 3.0
}

// ForSize returns the tier price for a size class, falling back to medium.
func (p PriceTable) ForSize(size SizeClass) int {
	switch size {
	case SizeSmall:
		return p.Small
	case SizeLarge:
		return p.Large
	default:
		return p.Medium
	}
}

// Specialty is one style an artist works in, with proficiency 0-4 and the
// years they have practiced it.
type Specialty struct {
	Style           string `json:"style"`
	Proficiency     int    `json:"proficiency"`
	ExperienceYears int    `json:"experienceYears"`
}

// DesignDescriptor is the cached output of the visual-analysis collaborator.
// The core only reads this shape; it never produces it.
type DesignDescriptor struct {
	Style        string   `json:"style"`
	ColorPalette []string `json:"colorPalette"`
	IsColorful   bool     `json:"isColorful"`
	Motifs       []string `json:"motifs"`
	Complexity   string   `json:"complexity"` // simple | moderate | complex
	Confidence   float64  `json:"confidence"`
	RawLabels    []string `json:"rawLabels,omitempty"`
}

// PortfolioItem is one analyzed work sample. The descriptor is immutable
// once analyzed; re-analysis replaces it atomically.
type PortfolioItem struct {
	ID         string            `json:"id"`
	ArtistID   string            `json:"artistId"`
	ImageURL   string            `json:"imageUrl"`
	Descriptor *DesignDescriptor `json:"descriptor,omitempty"`
	AnalyzedAt *time.Time        `json:"analyzedAt,omitempty"`
}

// ArtistProfile is the artist-side document read by the matcher and the
// negotiation coordinator.
type ArtistProfile struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ContactEmail string          `json:"contactEmail,omitempty"`
	Location     Coordinate      `json:"location"`
	HourlyRate   int             `json:"hourlyRate"`
	Prices       *PriceTable     `json:"prices,omitempty"`
	Specialties  []Specialty     `json:"specialties"`
	Rating       float64         `json:"rating"` // 0-5 aggregate
	ReviewCount  int             `json:"reviewCount"`
	Verified     bool            `json:"verified"`
	Portfolio    []PortfolioItem `json:"portfolio"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// MaxExperienceYears returns the longest practice duration across
// specialties, the figure the reputation score uses.
func (a *ArtistProfile) MaxExperienceYears() int {
	years := 0
	for _, s := range a.Specialties {
		if s.ExperienceYears > years {
			years = s.ExperienceYears
		}
	}
	return years
}

// SpecialtyFor returns the artist's specialty entry for a style, if any.
func (a *ArtistProfile) SpecialtyFor(style string) *Specialty {
	for i := range a.Specialties {
		if a.Specialties[i].Style == style {
			return &a.Specialties[i]
		}
	}
	return nil
}
