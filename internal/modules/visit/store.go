// README: Visit/schedule store backed by PostgreSQL.
package visit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shiftmatch/internal/types"
)

var ErrNotFound = errors.New("visit not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CommittedHours sums scheduled visit durations for a worker inside a window,
// excluding cancelled, no-show, and rejected visits.
func (s *Store) CommittedHours(ctx context.Context, workerID types.ID, from, to time.Time) (float64, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600.0), 0)
        FROM visits
        WHERE worker_id = $1
          AND start_time >= $2
          AND start_time < $3
          AND status NOT IN ('cancelled', 'no_show', 'rejected')`,
		string(workerID), from, to,
	)
	var hours float64
	if err := row.Scan(&hours); err != nil {
		return 0, err
	}
	return hours, nil
}

// FindOverlapping returns visits for a worker whose time range intersects
// [start, end); cancelled/no-show/rejected visits do not conflict.
func (s *Store) FindOverlapping(ctx context.Context, workerID types.ID, start, end time.Time) ([]Overlap, error) {
	rows, err := s.db.Query(ctx, `
        SELECT v.id, c.display_name, v.start_time, v.end_time
        FROM visits v
        JOIN clients c ON c.id = v.client_id
        WHERE v.worker_id = $1
          AND v.status NOT IN ('cancelled', 'no_show', 'rejected')
          AND v.start_time < $3
          AND v.end_time > $2
        ORDER BY v.start_time`,
		string(workerID), start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overlaps []Overlap
	for rows.Next() {
		var o Overlap
		if err := rows.Scan(&o.VisitID, &o.ClientName, &o.StartTime, &o.EndTime); err != nil {
			return nil, err
		}
		overlaps = append(overlaps, o)
	}
	return overlaps, rows.Err()
}

// PriorClientStats counts completed visits between a worker and a client plus
// the average client rating when any exists.
func (s *Store) PriorClientStats(ctx context.Context, workerID, clientID types.ID) (ClientStats, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(AVG(client_rating), 0), COUNT(client_rating)
        FROM visits
        WHERE worker_id = $1
          AND client_id = $2
          AND status = 'completed'`,
		string(workerID), string(clientID),
	)
	var stats ClientStats
	var ratedCount int
	if err := row.Scan(&stats.VisitCount, &stats.AvgRating, &ratedCount); err != nil {
		return ClientStats{}, err
	}
	stats.HasRating = ratedCount > 0
	return stats, nil
}

// ReliabilityStats tallies completion, no-show, and worker-cancellation counts
// for a worker since the cutoff.
func (s *Store) ReliabilityStats(ctx context.Context, workerID types.ID, since time.Time) (ReliabilityStats, error) {
	row := s.db.QueryRow(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE status = 'completed'),
            COUNT(*) FILTER (WHERE status = 'no_show'),
            COUNT(*) FILTER (WHERE status = 'cancelled' AND cancelled_by = 'worker')
        FROM visits
        WHERE worker_id = $1
          AND start_time >= $2`,
		string(workerID), since,
	)
	var stats ReliabilityStats
	if err := row.Scan(&stats.Completed, &stats.NoShows, &stats.Cancellations); err != nil {
		return ReliabilityStats{}, err
	}
	return stats, nil
}

// AssignWorker binds a worker to a visit; the side effect of an accepted proposal.
func (s *Store) AssignWorker(ctx context.Context, visitID, workerID types.ID) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE visits
        SET worker_id = $1, status = 'scheduled'
        WHERE id = $2`,
		string(workerID), string(visitID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
