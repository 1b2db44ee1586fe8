package optimize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripdraft/itinerary-api/internal/app/itinerary"
	"github.com/tripdraft/itinerary-api/internal/app/notify"
	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
)

// Service drives route optimization for the active day: it snapshots the day,
// asks the optimizer for a visiting order, validates the answer, and hands the
// bulk reorder to the engine. Summary stats are surfaced to the user only when
// the reorder persisted.
type Service struct {
	engine *itinerary.Engine
	opt    optimizer.Optimizer
	queue  *notify.Queue
	log    zerolog.Logger
}

func NewService(engine *itinerary.Engine, opt optimizer.Optimizer, queue *notify.Queue, log zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		opt:    opt,
		queue:  queue,
		log:    log.With().Str("component", "optimize").Logger(),
	}
}

// OptimizeActiveDay optimizes the visiting order of the active day's stops.
// Days with fewer than three stops have nothing to optimize. Returns whether
// the optimized order was applied and persisted.
func (s *Service) OptimizeActiveDay(ctx context.Context, mode optimizer.TravelMode) (bool, error) {
	day := s.engine.ActiveDay()
	if len(day.Stops) < 3 {
		return false, nil
	}

	places := make([]optimizer.Place, len(day.Stops))
	for i, st := range day.Stops {
		places[i] = optimizer.Place{ID: st.ID, Lat: st.Lat, Lng: st.Lng, Name: st.Title}
	}

	route, err := s.opt.Optimize(ctx, day.ID, places, mode)
	if err != nil {
		s.log.Warn().Err(err).Str("day_id", string(day.ID)).Msg("optimization request failed")
		s.queue.Enqueue(domain.Notification{
			Severity: domain.SeverityError,
			Title:    "Route optimization failed",
			Message:  err.Error(),
		})
		return false, err
	}

	// Validate the returned order against the snapshot we sent. A mismatch
	// means the day changed mid-flight; raising it beats corrupting the list.
	if _, err := ApplyOrder(day.Stops, route.Order); err != nil {
		if errors.Is(err, ErrOrderMismatch) {
			s.queue.Enqueue(domain.Notification{
				Severity: domain.SeverityWarning,
				Title:    "Route out of date",
				Message:  "Your day changed while optimizing. Try again.",
			})
		}
		return false, err
	}

	if !s.engine.OptimizeDay(ctx, route.Order) {
		return false, nil
	}

	distanceText, durationText := FormatDistance(route.TotalDistance), FormatDuration(route.TotalDuration)
	s.engine.SetRouteStats(distanceText, durationText)
	s.queue.Enqueue(domain.Notification{
		Severity: domain.SeveritySuccess,
		Title:    "Route optimized",
		Message:  fmt.Sprintf("Best order found: %s, about %s of travel.", distanceText, durationText),
		Duration: 5 * time.Second,
	})
	return true, nil
}

// FormatDistance renders meters as a short human distance.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatDuration renders seconds as a short human duration.
func FormatDuration(seconds float64) string {
	mins := int(seconds / 60)
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%d hr %d min", mins/60, mins%60)
}
