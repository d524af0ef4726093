package geo

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

const indexKey = "artists:geo"

// Candidate is one artist returned by the index before scoring.
type Candidate struct {
	ArtistID   string
	DistanceKm float64
	Location   models.Coordinate
}

// Index is the spatial candidate index over registered artist locations.
// It owns no business logic; it only filters by bounding region.
type Index struct {
	client *redis.Client
}

// NewIndex creates an index backed by the given Redis client.
func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

// Upsert registers or moves an artist's location.
func (i *Index) Upsert(ctx context.Context, artistID string, loc models.Coordinate) error {
	return i.client.GeoAdd(ctx, indexKey, &redis.GeoLocation{
		Name:      artistID,
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
	}).Err()
}

// Remove drops an artist from the index.
func (i *Index) Remove(ctx context.Context, artistID string) error {
	return i.client.ZRem(ctx, indexKey, artistID).Err()
}

// Search returns all artists within radiusKm of center, nearest first.
func (i *Index) Search(ctx context.Context, center models.Coordinate, radiusKm float64) ([]Candidate, error) {
	locs, err := i.client.GeoRadius(ctx, indexKey, center.Longitude, center.Latitude, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(locs))
	for _, l := range locs {
		candidates = append(candidates, Candidate{
			ArtistID:   l.Name,
			DistanceKm: l.Dist,
			Location: models.Coordinate{
				Latitude:  l.Latitude,
				Longitude: l.Longitude,
			},
		})
	}

	return candidates, nil
}
