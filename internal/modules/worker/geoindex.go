// README: Worker location index backed by Redis GEO.
package worker

import (
	"context"

	"github.com/redis/go-redis/v9"

	"shiftmatch/internal/types"
)

const workerGeoKey = "matching:workers"

// GeoIndex tracks worker primary locations so matching can prefilter by radius
// before building full per-worker contexts.
type GeoIndex struct {
	redis *redis.Client
}

func NewGeoIndex(redis *redis.Client) *GeoIndex {
	return &GeoIndex{redis: redis}
}

func (g *GeoIndex) SetLocation(ctx context.Context, id types.ID, p types.Point) error {
	return g.redis.GeoAdd(ctx, workerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (g *GeoIndex) Remove(ctx context.Context, id types.ID) error {
	return g.redis.ZRem(ctx, workerGeoKey, string(id)).Err()
}

// NearbyWorkerIDs returns workers within radiusMiles of a point, closest first.
func (g *GeoIndex) NearbyWorkerIDs(ctx context.Context, p types.Point, radiusMiles float64) ([]types.ID, error) {
	results, err := g.redis.GeoSearch(ctx, workerGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusMiles,
		RadiusUnit: "mi",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
