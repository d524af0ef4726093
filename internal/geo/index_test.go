package geo

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

func TestIndex_Upsert(t *testing.T) {
	client, mock := redismock.NewClientMock()
	index := NewIndex(client)

	mock.ExpectGeoAdd("artists:geo", &redis.GeoLocation{
		Name:      "artist-1",
		Longitude: 139.7671,
		Latitude:  35.6812,
	}).SetVal(1)

	err := index.Upsert(context.Background(), "artist-1", models.Coordinate{
		Latitude:  35.6812,
		Longitude: 139.7671,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Remove(t *testing.T) {
	client, mock := redismock.NewClientMock()
	index := NewIndex(client)

	mock.ExpectZRem("artists:geo", "artist-1").SetVal(1)

	require.NoError(t, index.Remove(context.Background(), "artist-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Search(t *testing.T) {
	client, mock := redismock.NewClientMock()
	index := NewIndex(client)

	mock.ExpectGeoRadius("artists:geo", 139.7671, 35.6812, &redis.GeoRadiusQuery{
		Radius:    20,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).SetVal([]redis.GeoLocation{
		{Name: "artist-1", Dist: 3.2, Latitude: 35.70, Longitude: 139.75},
		{Name: "artist-2", Dist: 8.1, Latitude: 35.61, Longitude: 139.70},
	})

	candidates, err := index.Search(context.Background(), models.Coordinate{
		Latitude:  35.6812,
		Longitude: 139.7671,
	}, 20)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "artist-1", candidates[0].ArtistID)
	assert.InDelta(t, 3.2, candidates[0].DistanceKm, 0.001)
	assert.Equal(t, "artist-2", candidates[1].ArtistID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Search_Empty(t *testing.T) {
	client, mock := redismock.NewClientMock()
	index := NewIndex(client)

	mock.ExpectGeoRadius("artists:geo", 135.5023, 34.6937, &redis.GeoRadiusQuery{
		Radius:    5,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).SetVal([]redis.GeoLocation{})

	candidates, err := index.Search(context.Background(), models.Coordinate{
		Latitude:  34.6937,
		Longitude: 135.5023,
	}, 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
