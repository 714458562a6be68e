// README: Visit summaries consumed by the matching context builder.
package visit

import (
	"time"

	"shiftmatch/internal/types"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusRejected  Status = "rejected"
)

// Overlap describes a scheduled visit whose time range collides with a
// candidate shift's window.
type Overlap struct {
	VisitID    types.ID
	ClientName string
	StartTime  time.Time
	EndTime    time.Time
}

// ClientStats summarizes a worker's prior completed visits with one client.
type ClientStats struct {
	VisitCount int
	AvgRating  float64
	HasRating  bool
}

// ReliabilityStats counts trailing-window outcomes used to derive the
// reliability score.
type ReliabilityStats struct {
	Completed     int
	NoShows       int
	Cancellations int
}
