// README: Worker location updates fanned out to Postgres and the Redis GEO index.
package worker

import (
	"context"

	"go.uber.org/zap"

	"shiftmatch/internal/types"
)

// LocationService keeps the durable worker record and the GEO index in step.
// Postgres is the source of truth; the index is a best-effort radius filter.
type LocationService struct {
	store  *Store
	geo    *GeoIndex
	logger *zap.Logger
}

func NewLocationService(store *Store, geo *GeoIndex, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{store: store, geo: geo, logger: logger}
}

func (s *LocationService) Update(ctx context.Context, id types.ID, p types.Point) error {
	if err := s.store.UpdateLocation(ctx, id, p); err != nil {
		return err
	}
	if err := s.geo.SetLocation(ctx, id, p); err != nil {
		s.logger.Warn("geo index update failed",
			zap.String("worker_id", string(id)), zap.Error(err))
	}
	return nil
}

// Nearby loads full worker records for everyone indexed within radiusMiles of
// a point, closest first.
func (s *LocationService) Nearby(ctx context.Context, p types.Point, radiusMiles float64) ([]*Worker, error) {
	ids, err := s.geo.NearbyWorkerIDs(ctx, p, radiusMiles)
	if err != nil {
		return nil, err
	}
	workers := make([]*Worker, 0, len(ids))
	for _, id := range ids {
		w, err := s.store.GetByID(ctx, id)
		if err == ErrNotFound {
			// stale index entry
			continue
		}
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}
