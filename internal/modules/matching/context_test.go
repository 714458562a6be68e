// README: Context builder tests with in-memory directory and visit fakes.
package matching

import (
	"context"
	"math"
	"testing"
	"time"

	"shiftmatch/internal/modules/visit"
	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/types"
)

type fakeDirectory struct {
	workers map[types.ID]*worker.Worker
}

func (f *fakeDirectory) GetByID(_ context.Context, id types.ID) (*worker.Worker, error) {
	w, ok := f.workers[id]
	if !ok {
		return nil, worker.ErrNotFound
	}
	return w, nil
}

type fakeVisits struct {
	hours       float64
	overlaps    []visit.Overlap
	clientStats visit.ClientStats
	reliability visit.ReliabilityStats

	overlapStart time.Time
	overlapEnd   time.Time
}

func (f *fakeVisits) CommittedHours(_ context.Context, _ types.ID, _, _ time.Time) (float64, error) {
	return f.hours, nil
}

func (f *fakeVisits) FindOverlapping(_ context.Context, _ types.ID, start, end time.Time) ([]visit.Overlap, error) {
	f.overlapStart, f.overlapEnd = start, end
	return f.overlaps, nil
}

func (f *fakeVisits) PriorClientStats(_ context.Context, _, _ types.ID) (visit.ClientStats, error) {
	return f.clientStats, nil
}

func (f *fakeVisits) ReliabilityStats(_ context.Context, _ types.ID, _ time.Time) (visit.ReliabilityStats, error) {
	return f.reliability, nil
}

type fakeRejections struct{ count int }

func (f *fakeRejections) CountRecentRejections(_ context.Context, _ types.ID, _ time.Time) (int, error) {
	return f.count, nil
}

type fixedTravel struct{ minutes float64 }

func (f fixedTravel) TravelMinutes(_ context.Context, _, _ types.Point) (float64, error) {
	return f.minutes, nil
}

func builderWith(dir *fakeDirectory, visits *fakeVisits, rej *fakeRejections, travel TravelEstimator) *ContextBuilder {
	b := NewContextBuilder(dir, visits, rej, travel)
	b.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestBuild_WorkerNotFound(t *testing.T) {
	b := builderWith(&fakeDirectory{workers: map[types.ID]*worker.Worker{}}, &fakeVisits{}, &fakeRejections{}, nil)
	_, err := b.Build(context.Background(), "missing", testRequest(), false)
	if err != worker.ErrNotFound {
		t.Fatalf("want worker.ErrNotFound, got %v", err)
	}
}

func TestBuild_AssemblesContext(t *testing.T) {
	w := testWorker("w1")
	w.Location = &types.Point{Lat: 39.9612, Lng: -82.9988}
	visits := &fakeVisits{
		hours:       12.5,
		clientStats: visit.ClientStats{VisitCount: 4, AvgRating: 4.5, HasRating: true},
		reliability: visit.ReliabilityStats{Completed: 18, NoShows: 1, Cancellations: 1},
	}
	b := builderWith(&fakeDirectory{workers: map[types.ID]*worker.Worker{"w1": w}}, visits, &fakeRejections{count: 2}, nil)

	req := testRequest()
	req.Location = &types.Point{Lat: 40.0992, Lng: -83.1141}
	wctx, err := b.Build(context.Background(), "w1", req, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if wctx.CurrentWeekHours != 12.5 {
		t.Fatalf("hours = %f, want 12.5", wctx.CurrentWeekHours)
	}
	if wctx.PriorVisits.VisitCount != 4 {
		t.Fatalf("prior visits = %d, want 4", wctx.PriorVisits.VisitCount)
	}
	if wctx.RecentRejections != 2 {
		t.Fatalf("rejections = %d, want 2", wctx.RecentRejections)
	}
	if wctx.DistanceMiles == nil {
		t.Fatal("distance should be computed when both coordinates are present")
	}
	if *wctx.DistanceMiles < 5 || *wctx.DistanceMiles > 20 {
		t.Fatalf("implausible distance %f", *wctx.DistanceMiles)
	}
	// 18 of 20 completed: 50 + 50*0.9 - 15 - 5 = 75
	if math.Abs(wctx.ReliabilityScore-75) > 0.001 {
		t.Fatalf("reliability = %f, want 75", wctx.ReliabilityScore)
	}
}

func TestBuild_DistanceUnsetWithoutCoordinates(t *testing.T) {
	w := testWorker("w1") // no location
	b := builderWith(&fakeDirectory{workers: map[types.ID]*worker.Worker{"w1": w}}, &fakeVisits{}, &fakeRejections{}, nil)
	req := testRequest()
	req.Location = &types.Point{Lat: 40.0, Lng: -83.0}
	wctx, err := b.Build(context.Background(), "w1", req, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if wctx.DistanceMiles != nil {
		t.Fatal("distance must stay unset when the worker has no coordinates")
	}
}

func TestBuild_TravelBufferWidensConflictWindow(t *testing.T) {
	w := testWorker("w1")
	w.Location = &types.Point{Lat: 39.9612, Lng: -82.9988}
	visits := &fakeVisits{}
	b := builderWith(&fakeDirectory{workers: map[types.ID]*worker.Worker{"w1": w}}, visits, &fakeRejections{}, fixedTravel{minutes: 20})

	req := testRequest()
	req.Location = &types.Point{Lat: 40.0, Lng: -83.0}
	if _, err := b.Build(context.Background(), "w1", req, true); err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := req.StartTime.Sub(visits.overlapStart); got != 20*time.Minute {
		t.Fatalf("window start widened by %v, want 20m", got)
	}
	if got := visits.overlapEnd.Sub(req.EndTime); got != 20*time.Minute {
		t.Fatalf("window end widened by %v, want 20m", got)
	}

	// Buffer off: the window is exactly the shift.
	if _, err := b.Build(context.Background(), "w1", req, false); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !visits.overlapStart.Equal(req.StartTime) || !visits.overlapEnd.Equal(req.EndTime) {
		t.Fatal("window should match the shift exactly when the buffer is off")
	}
}

func TestBuild_TravelBufferDefaultWithoutEstimator(t *testing.T) {
	w := testWorker("w1")
	visits := &fakeVisits{}
	b := builderWith(&fakeDirectory{workers: map[types.ID]*worker.Worker{"w1": w}}, visits, &fakeRejections{}, nil)

	req := testRequest()
	if _, err := b.Build(context.Background(), "w1", req, true); err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := req.StartTime.Sub(visits.overlapStart); got != 30*time.Minute {
		t.Fatalf("default buffer widened start by %v, want 30m", got)
	}
}

func TestReliabilityScore(t *testing.T) {
	cases := []struct {
		name  string
		stats visit.ReliabilityStats
		want  float64
	}{
		{"no history stays neutral", visit.ReliabilityStats{}, 50},
		{"perfect record", visit.ReliabilityStats{Completed: 30}, 100},
		{"no-shows punished hard", visit.ReliabilityStats{Completed: 8, NoShows: 2}, 60},
		{"cancellations punished lightly", visit.ReliabilityStats{Completed: 8, Cancellations: 2}, 80},
		{"floor at zero", visit.ReliabilityStats{NoShows: 10}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := reliabilityScore(tc.stats)
			if math.Abs(got-tc.want) > 0.001 {
				t.Errorf("reliabilityScore(%+v) = %f, want %f", tc.stats, got, tc.want)
			}
		})
	}
}

func TestCalendarWeek(t *testing.T) {
	// Wednesday 2026-09-02 falls in the week of Sunday 2026-08-30.
	start, end := calendarWeek(time.Date(2026, 9, 2, 14, 30, 0, 0, time.UTC))
	if !start.Equal(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week start = %v", start)
	}
	if !end.Equal(time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week end = %v", end)
	}
}
