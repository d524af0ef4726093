package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/metrics"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/geo"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/repository"
)

const (
	maxTopPortfolio = 3
	maxReasons      = 3
)

// CandidateIndex yields nearby artists for a query center.
type CandidateIndex interface {
	Search(ctx context.Context, center models.Coordinate, radiusKm float64) ([]geo.Candidate, error)
}

// ProfileReader resolves artist profiles for scoring.
type ProfileReader interface {
	GetMany(ctx context.Context, artistIDs []string) ([]*models.ArtistProfile, error)
}

// QueryAuditor records executed match queries. Failures are advisory.
type QueryAuditor interface {
	RecordMatchQuery(ctx context.Context, record *repository.MatchQueryRecord) error
}

// RankerConfig tunes the result set.
type RankerConfig struct {
	MinScore            float64
	MaxResults          int
	DefaultSessionHours float64
}

// Ranker runs a full match query: geo candidates, profile reads, scoring,
// threshold filtering and deterministic ordering.
type Ranker struct {
	index    CandidateIndex
	profiles ProfileReader
	scorer   *Scorer
	auditor  QueryAuditor
	config   RankerConfig
	logger   logger.Logger
}

// NewRanker wires a ranker. auditor may be nil to disable query auditing.
func NewRanker(index CandidateIndex, profiles ProfileReader, auditor QueryAuditor, config RankerConfig, log logger.Logger) *Ranker {
	return &Ranker{
		index:    index,
		profiles: profiles,
		scorer:   NewScorer(),
		auditor:  auditor,
		config:   config,
		logger:   log,
	}
}

// Rank executes the query and returns results ordered best-first. Results
// scoring at or below MinScore are dropped entirely. Ordering is total:
// combined score descending, then artist sub-score descending, then
// distance ascending, then artist id.
func (r *Ranker) Rank(ctx context.Context, query *models.CustomerQuery) ([]models.MatchResult, error) {
	started := time.Now()

	candidates, err := r.index.Search(ctx, query.Location, query.MaxRadiusKm)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(candidates))
	distances := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ArtistID)
		distances[c.ArtistID] = c.DistanceKm
	}

	profiles, err := r.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]models.MatchResult, 0, len(profiles))
	for _, artist := range profiles {
		distanceKm, ok := distances[artist.ID]
		if !ok {
			distanceKm = geo.DistanceKm(query.Location, artist.Location)
		}

		sub, score := r.scorer.Score(query, artist, distanceKm)
		if score <= r.config.MinScore {
			metrics.MatchesComputed.WithLabelValues("below_threshold").Inc()
			continue
		}
		metrics.MatchesComputed.WithLabelValues("matched").Inc()

		results = append(results, models.MatchResult{
			ArtistID:       artist.ID,
			ArtistName:     artist.Name,
			Score:          score,
			SubScores:      sub,
			DistanceKm:     distanceKm,
			EstimatedPrice: r.scorer.EstimatedPrice(query, artist, r.config.DefaultSessionHours),
			TopPortfolio:   topPortfolio(query, artist),
			Reasons:        buildReasons(query, artist, sub, distanceKm),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].SubScores.Artist != results[j].SubScores.Artist {
			return results[i].SubScores.Artist > results[j].SubScores.Artist
		}
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].ArtistID < results[j].ArtistID
	})

	if r.config.MaxResults > 0 && len(results) > r.config.MaxResults {
		results = results[:r.config.MaxResults]
	}

	elapsed := time.Since(started)
	metrics.MatchQueryDuration.Observe(elapsed.Seconds())

	r.audit(ctx, query, len(candidates), results, elapsed)

	r.logger.Info("Match query executed", map[string]interface{}{
		"customerId": query.CustomerID,
		"candidates": len(candidates),
		"results":    len(results),
		"durationMs": elapsed.Milliseconds(),
	})

	return results, nil
}

func (r *Ranker) audit(ctx context.Context, query *models.CustomerQuery, candidateCount int, results []models.MatchResult, elapsed time.Duration) {
	if r.auditor == nil {
		return
	}
	record := repository.RecordFromQuery(query, candidateCount, results, elapsed)
	if err := r.auditor.RecordMatchQuery(ctx, record); err != nil {
		r.logger.WithError(err).Warn("Match query audit failed", map[string]interface{}{
			"customerId": query.CustomerID,
		})
	}
}

// topPortfolio picks the artist's portfolio items most compatible with the
// query, at most three, best first.
func topPortfolio(query *models.CustomerQuery, artist *models.ArtistProfile) []models.PortfolioItem {
	type scored struct {
		item  models.PortfolioItem
		score float64
	}

	items := make([]scored, 0, len(artist.Portfolio))
	for _, item := range artist.Portfolio {
		if item.Descriptor == nil {
			continue
		}
		items = append(items, scored{
			item:  item,
			score: DescriptorCompatibility(query.Descriptor, item.Descriptor),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	n := len(items)
	if n > maxTopPortfolio {
		n = maxTopPortfolio
	}
	out := make([]models.PortfolioItem, 0, n)
	for _, s := range items[:n] {
		out = append(out, s.item)
	}
	return out
}

// buildReasons produces up to three human-readable explanations for why the
// artist ranked, strongest signal first.
func buildReasons(query *models.CustomerQuery, artist *models.ArtistProfile, sub models.SubScores, distanceKm float64) []string {
	var reasons []string

	if query.Descriptor != nil && sub.Design >= 0.7 {
		if sp := artist.SpecialtyFor(query.Descriptor.Style); sp != nil {
			reasons = append(reasons, fmt.Sprintf("Specializes in %s (%d years)", sp.Style, sp.ExperienceYears))
		} else {
			reasons = append(reasons, fmt.Sprintf("Portfolio closely matches the %s style", query.Descriptor.Style))
		}
	}

	if sub.Artist >= 0.7 && artist.ReviewCount > 0 {
		reasons = append(reasons, fmt.Sprintf("Rated %.1f across %d reviews", artist.Rating, artist.ReviewCount))
	}

	if sub.Price >= 0.8 && artist.Prices != nil {
		reasons = append(reasons, "Typical prices fit your budget")
	}

	if len(reasons) < maxReasons && sub.Distance >= 0.7 {
		reasons = append(reasons, fmt.Sprintf("Only %.1f km away", distanceKm))
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}
