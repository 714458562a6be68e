// README: Worker context builder; assembles per-candidate facts from the directory and visit store.
package matching

import (
	"context"
	"time"

	"shiftmatch/internal/geo"
	"shiftmatch/internal/modules/visit"
	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/types"
)

const (
	reliabilityWindow = 90 * 24 * time.Hour
	rejectionWindow   = 30 * 24 * time.Hour

	// reliabilityBaseline is the neutral score for workers with no trailing
	// history; completion ratio scales the other half.
	reliabilityBaseline = 50.0
	noShowPenalty       = 15.0
	cancellationPenalty = 5.0

	// defaultTravelBufferMinutes pads conflict windows when travel-buffer
	// checking is on but no live estimate is available.
	defaultTravelBufferMinutes = 30.0
)

// Directory is the slice of the external worker directory the builder needs.
type Directory interface {
	GetByID(ctx context.Context, id types.ID) (*worker.Worker, error)
}

// VisitReader is the slice of the visit/schedule store the builder needs.
type VisitReader interface {
	CommittedHours(ctx context.Context, workerID types.ID, from, to time.Time) (float64, error)
	FindOverlapping(ctx context.Context, workerID types.ID, start, end time.Time) ([]visit.Overlap, error)
	PriorClientStats(ctx context.Context, workerID, clientID types.ID) (visit.ClientStats, error)
	ReliabilityStats(ctx context.Context, workerID types.ID, since time.Time) (visit.ReliabilityStats, error)
}

// RejectionCounter reports how many proposals a worker declined since a cutoff.
type RejectionCounter interface {
	CountRecentRejections(ctx context.Context, workerID types.ID, since time.Time) (int, error)
}

// TravelEstimator supplies a drive-time estimate in minutes between two points.
type TravelEstimator interface {
	TravelMinutes(ctx context.Context, from, to types.Point) (float64, error)
}

type ContextBuilder struct {
	directory  Directory
	visits     VisitReader
	rejections RejectionCounter
	// travel is optional; nil means the fixed default buffer is used when
	// travel-buffer checking is enabled.
	travel TravelEstimator
	now    func() time.Time
}

func NewContextBuilder(directory Directory, visits VisitReader, rejections RejectionCounter, travel TravelEstimator) *ContextBuilder {
	return &ContextBuilder{
		directory:  directory,
		visits:     visits,
		rejections: rejections,
		travel:     travel,
		now:        time.Now,
	}
}

// BuildFor assembles the context for an already-fetched worker profile.
func (b *ContextBuilder) BuildFor(ctx context.Context, w *worker.Worker, req ShiftRequest, includeTravelBuffer bool) (*WorkerMatchContext, error) {
	weekStart, weekEnd := calendarWeek(req.Date)
	hours, err := b.visits.CommittedHours(ctx, w.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	start, end := req.StartTime, req.EndTime
	if includeTravelBuffer {
		buffer := b.travelBuffer(ctx, w, req)
		start = start.Add(-buffer)
		end = end.Add(buffer)
	}
	conflicts, err := b.visits.FindOverlapping(ctx, w.ID, start, end)
	if err != nil {
		return nil, err
	}

	prior, err := b.visits.PriorClientStats(ctx, w.ID, req.ClientID)
	if err != nil {
		return nil, err
	}

	now := b.now()
	stats, err := b.visits.ReliabilityStats(ctx, w.ID, now.Add(-reliabilityWindow))
	if err != nil {
		return nil, err
	}

	rejections, err := b.rejections.CountRecentRejections(ctx, w.ID, now.Add(-rejectionWindow))
	if err != nil {
		return nil, err
	}

	wctx := &WorkerMatchContext{
		Worker:           w,
		CurrentWeekHours: hours,
		Conflicts:        conflicts,
		PriorVisits:      prior,
		ReliabilityScore: reliabilityScore(stats),
		RecentRejections: rejections,
	}
	if w.Location != nil && req.Location != nil {
		d := geo.HaversineMiles(w.Location.Lat, w.Location.Lng, req.Location.Lat, req.Location.Lng)
		wctx.DistanceMiles = &d
	}
	return wctx, nil
}

// Build fetches the worker from the directory first; worker.ErrNotFound
// propagates unchanged.
func (b *ContextBuilder) Build(ctx context.Context, workerID types.ID, req ShiftRequest, includeTravelBuffer bool) (*WorkerMatchContext, error) {
	w, err := b.directory.GetByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return b.BuildFor(ctx, w, req, includeTravelBuffer)
}

func (b *ContextBuilder) travelBuffer(ctx context.Context, w *worker.Worker, req ShiftRequest) time.Duration {
	minutes := defaultTravelBufferMinutes
	if b.travel != nil && w.Location != nil && req.Location != nil {
		if est, err := b.travel.TravelMinutes(ctx, *w.Location, *req.Location); err == nil && est > 0 {
			minutes = est
		}
	}
	return time.Duration(minutes * float64(time.Minute))
}

// reliabilityScore starts from a neutral baseline scaled by the completion
// ratio, then subtracts fixed penalties per no-show and per worker-initiated
// cancellation, clamped to [0, 100]. No trailing history stays at baseline.
func reliabilityScore(stats visit.ReliabilityStats) float64 {
	total := stats.Completed + stats.NoShows + stats.Cancellations
	score := reliabilityBaseline
	if total > 0 {
		ratio := float64(stats.Completed) / float64(total)
		score = reliabilityBaseline + reliabilityBaseline*ratio
	}
	score -= noShowPenalty * float64(stats.NoShows)
	score -= cancellationPenalty * float64(stats.Cancellations)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// calendarWeek returns the Sunday-to-Sunday week containing d, in d's location.
func calendarWeek(d time.Time) (time.Time, time.Time) {
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	start := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	return start, start.AddDate(0, 0, 7)
}
