// Package matching implements the multi-criteria ranking engine: a scorer
// that rates one (query, artist) pair and a ranker that orchestrates the
// geo index, profile reads and scoring into an ordered result set.
package matching

import (
	"math"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

// Fixed convex-combination weights for the combined match score.
const (
	WeightDesign   = 0.4
	WeightArtist   = 0.3
	WeightPrice    = 0.2
	WeightDistance = 0.1
)

// Scorer computes the four sub-scores for one (query, artist) pair and
// combines them. It is pure: missing optional data degrades to a neutral
// default instead of failing.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the sub-scores and combined score for a pair. distanceKm is
// the precomputed great-circle distance between the query and the artist.
func (s *Scorer) Score(query *models.CustomerQuery, artist *models.ArtistProfile, distanceKm float64) (models.SubScores, float64) {
	sub := models.SubScores{
		Design:   s.DesignScore(query, artist),
		Artist:   s.ArtistScore(artist),
		Price:    s.PriceScore(query, artist),
		Distance: s.DistanceScore(distanceKm, query.MaxRadiusKm),
	}

	combined := WeightDesign*sub.Design +
		WeightArtist*sub.Artist +
		WeightPrice*sub.Price +
		WeightDistance*sub.Distance

	return sub, clamp01(combined)
}

// DesignScore averages visual compatibility over the analyzed portfolio and
// adds a specialization bonus for the query's style: proficiency (0-4)
// scaled by 0.05 plus an experience bonus capped at 0.1.
func (s *Scorer) DesignScore(query *models.CustomerQuery, artist *models.ArtistProfile) float64 {
	base := 0.0
	analyzed := 0
	for i := range artist.Portfolio {
		if artist.Portfolio[i].Descriptor == nil {
			continue
		}
		base += DescriptorCompatibility(query.Descriptor, artist.Portfolio[i].Descriptor)
		analyzed++
	}
	if analyzed > 0 {
		base /= float64(analyzed)
	}

	bonus := 0.0
	if query.Descriptor != nil {
		if sp := artist.SpecialtyFor(query.Descriptor.Style); sp != nil {
			bonus = float64(sp.Proficiency)*0.05 +
				math.Min(float64(sp.ExperienceYears)*0.01, 0.1)
		}
	}

	return clamp01(base + bonus)
}

// ArtistScore rates reputation: rating, review volume, experience,
// portfolio depth and verification.
func (s *Scorer) ArtistScore(artist *models.ArtistProfile) float64 {
	rating := artist.Rating
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	score := 0.5*(rating/5.0) +
		math.Min(float64(artist.ReviewCount)*0.01, 0.2) +
		math.Min(float64(artist.MaxExperienceYears())*0.02, 0.2) +
		math.Min(float64(len(artist.Portfolio))*0.01, 0.1)

	if artist.Verified {
		score += 0.1
	}

	return clamp01(score)
}

// PriceScore compares the artist's average tier price against the budget
// bracket. No price table yields the neutral 0.5.
func (s *Scorer) PriceScore(query *models.CustomerQuery, artist *models.ArtistProfile) float64 {
	if artist.Prices == nil {
		return 0.5
	}

	avg := artist.Prices.Average()
	mid := query.Budget.Midpoint()

	if query.Budget.Contains(avg) {
		width := query.Budget.Width()
		if width == 0 {
			return 1.0
		}
		return clamp01(1.0 - 0.3*math.Abs(avg-mid)/width)
	}

	if mid == 0 {
		return 0
	}
	return clamp01(1.0 - math.Abs(avg-mid)/mid)
}

// DistanceScore decays linearly to zero at the query radius.
func (s *Scorer) DistanceScore(distanceKm, maxRadiusKm float64) float64 {
	if maxRadiusKm <= 0 || distanceKm > maxRadiusKm {
		return 0
	}
	return clamp01(1.0 - distanceKm/maxRadiusKm)
}

// EstimatedPrice returns the artist's tier price for the query size, or an
// hourly estimate when no price table exists.
func (s *Scorer) EstimatedPrice(query *models.CustomerQuery, artist *models.ArtistProfile, defaultSessionHours float64) int {
	if artist.Prices != nil {
		return artist.Prices.ForSize(query.Size)
	}
	return int(float64(artist.HourlyRate) * defaultSessionHours)
}

// DescriptorCompatibility rates how visually close two descriptors are, in
// [0,1]. Either side missing a usable style degrades to the neutral 0.5.
func DescriptorCompatibility(query, item *models.DesignDescriptor) float64 {
	if query == nil || item == nil || query.Style == "" || item.Style == "" {
		return 0.5
	}

	score := 0.0

	// Style identity dominates.
	if query.Style == item.Style {
		score += 0.5
	}

	// Color: colorful/monochrome agreement plus palette overlap.
	if query.IsColorful == item.IsColorful {
		score += 0.1
	}
	score += 0.1 * overlapRatio(query.ColorPalette, item.ColorPalette)

	// Shared motifs.
	score += 0.2 * overlapRatio(query.Motifs, item.Motifs)

	// Complexity proximity.
	if query.Complexity != "" && query.Complexity == item.Complexity {
		score += 0.1
	}

	return clamp01(score)
}

// overlapRatio returns |a ∩ b| / |a| for non-empty a, else 0.
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	hits := 0
	for _, v := range a {
		if _, ok := set[v]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
