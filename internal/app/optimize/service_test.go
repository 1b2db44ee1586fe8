package optimize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	memstopstore "github.com/tripdraft/itinerary-api/internal/adapters/memory/stopstore"
	"github.com/tripdraft/itinerary-api/internal/app/itinerary"
	"github.com/tripdraft/itinerary-api/internal/app/notify"
	"github.com/tripdraft/itinerary-api/internal/app/optimize"
	"github.com/tripdraft/itinerary-api/internal/domain"
	platformclock "github.com/tripdraft/itinerary-api/internal/platform/clock"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
)

// stubOptimizer returns a canned route or error and records what it was asked.
type stubOptimizer struct {
	route optimizer.Route
	err   error

	calls  int
	places []optimizer.Place
	mode   optimizer.TravelMode
}

func (s *stubOptimizer) Optimize(_ context.Context, _ domain.DayID, places []optimizer.Place, mode optimizer.TravelMode) (optimizer.Route, error) {
	s.calls++
	s.places = places
	s.mode = mode
	if s.err != nil {
		return optimizer.Route{}, s.err
	}
	return s.route, nil
}

func newService(t *testing.T, opt *stubOptimizer) (*optimize.Service, *itinerary.Engine, *notify.Queue) {
	t.Helper()
	queue := notify.NewQueue()
	engine := itinerary.NewEngine(memstopstore.NewStore(), queue, platformclock.NewSystemClock(), zerolog.Nop())
	return optimize.NewService(engine, opt, queue, zerolog.Nop()), engine, queue
}

func seedStops(t *testing.T, engine *itinerary.Engine, titles ...string) []domain.StopID {
	t.Helper()
	ctx := context.Background()
	out := make([]domain.StopID, len(titles))
	for i, title := range titles {
		out[i] = engine.AddStop(ctx, itinerary.AddStopInput{
			Title: title,
			Lat:   37.7 + float64(i)*0.01,
			Lng:   -122.4 - float64(i)*0.01,
		})
	}
	return out
}

func findNotification(q *notify.Queue, title string) (domain.Notification, bool) {
	for _, n := range q.List() {
		if n.Title == title {
			return n, true
		}
	}
	return domain.Notification{}, false
}

func TestOptimizeActiveDay_AppliesOrderAndCachesStats(t *testing.T) {
	t.Parallel()

	opt := &stubOptimizer{}
	svc, engine, queue := newService(t, opt)
	ids := seedStops(t, engine, "Pier 39", "Golden Gate Bridge", "Mission Dolores")

	opt.route = optimizer.Route{
		Order:         []domain.StopID{ids[2], ids[0], ids[1]},
		TotalDistance: 12400,
		TotalDuration: 2280, // 38 min
	}

	applied, err := svc.OptimizeActiveDay(context.Background(), optimizer.TravelModeWalking)
	if err != nil {
		t.Fatalf("OptimizeActiveDay: %v", err)
	}
	if !applied {
		t.Fatalf("expected the route to be applied")
	}
	if opt.mode != optimizer.TravelModeWalking {
		t.Fatalf("travel mode = %q", opt.mode)
	}
	if len(opt.places) != 3 || opt.places[0].Name != "Pier 39" {
		t.Fatalf("optimizer request wrong: %+v", opt.places)
	}

	day := engine.ActiveDay()
	want := []domain.StopID{ids[2], ids[0], ids[1]}
	for i, id := range want {
		if day.Stops[i].ID != id {
			t.Fatalf("stop %d = %s, want %s", i, day.Stops[i].ID, id)
		}
	}
	if day.DistanceText != "12.4 km" || day.DurationText != "38 min" {
		t.Fatalf("route stats = %q / %q", day.DistanceText, day.DurationText)
	}

	n, ok := findNotification(queue, "Route optimized")
	if !ok {
		t.Fatalf("missing success notification, queue: %+v", queue.List())
	}
	if n.Severity != domain.SeveritySuccess || n.Duration == 0 {
		t.Fatalf("success notification should be a transient toast: %+v", n)
	}
}

func TestOptimizeActiveDay_SkipsShortDays(t *testing.T) {
	t.Parallel()

	opt := &stubOptimizer{}
	svc, engine, _ := newService(t, opt)
	seedStops(t, engine, "Pier 39", "Golden Gate Bridge")

	applied, err := svc.OptimizeActiveDay(context.Background(), optimizer.TravelModeDriving)
	if err != nil || applied {
		t.Fatalf("short day: applied=%v err=%v", applied, err)
	}
	if opt.calls != 0 {
		t.Fatalf("optimizer must not be called for fewer than 3 stops")
	}
}

func TestOptimizeActiveDay_OptimizerErrorNotifies(t *testing.T) {
	t.Parallel()

	opt := &stubOptimizer{err: optimizer.ErrUnavailable}
	svc, engine, queue := newService(t, opt)
	ids := seedStops(t, engine, "A", "B", "C")

	applied, err := svc.OptimizeActiveDay(context.Background(), optimizer.TravelModeDriving)
	if applied {
		t.Fatalf("failed optimization must not apply")
	}
	if !errors.Is(err, optimizer.ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}

	n, ok := findNotification(queue, "Route optimization failed")
	if !ok || n.Severity != domain.SeverityError {
		t.Fatalf("expected an error notification, queue: %+v", queue.List())
	}

	// The day keeps its original order.
	day := engine.ActiveDay()
	for i, id := range ids {
		if day.Stops[i].ID != id {
			t.Fatalf("order changed despite failure: %+v", day.Stops)
		}
	}
	if day.DistanceText != "" {
		t.Fatalf("stats must not be cached on failure")
	}
}

func TestOptimizeActiveDay_StaleOrderWarns(t *testing.T) {
	t.Parallel()

	opt := &stubOptimizer{}
	svc, engine, queue := newService(t, opt)
	ids := seedStops(t, engine, "A", "B", "C")

	// Order references a stop that no longer exists.
	opt.route = optimizer.Route{Order: []domain.StopID{ids[0], ids[1], "ghost"}}

	applied, err := svc.OptimizeActiveDay(context.Background(), optimizer.TravelModeDriving)
	if applied {
		t.Fatalf("stale order must not apply")
	}
	if !errors.Is(err, optimize.ErrOrderMismatch) {
		t.Fatalf("err = %v", err)
	}

	n, ok := findNotification(queue, "Route out of date")
	if !ok || n.Severity != domain.SeverityWarning {
		t.Fatalf("expected a warning notification, queue: %+v", queue.List())
	}

	day := engine.ActiveDay()
	for i, id := range ids {
		if day.Stops[i].ID != id {
			t.Fatalf("order changed despite mismatch: %+v", day.Stops)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		meters float64
		want   string
	}{
		{240, "240 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{12400, "12.4 km"},
	}
	for _, c := range cases {
		if got := optimize.FormatDistance(c.meters); got != c.want {
			t.Fatalf("FormatDistance(%v) = %q, want %q", c.meters, got, c.want)
		}
	}

	durations := []struct {
		seconds float64
		want    string
	}{
		{300, "5 min"},
		{3540, "59 min"},
		{3600, "1 hr 0 min"},
		{5460, "1 hr 31 min"},
	}
	for _, c := range durations {
		if got := optimize.FormatDuration(c.seconds); got != c.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
