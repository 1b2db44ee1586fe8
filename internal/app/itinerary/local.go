package itinerary

import (
	"context"
	"fmt"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// Local trip operations. These mutate in-memory state only and follow the
// same invariants as the persisted mutations (active-day index always valid,
// never fewer than one day) but skip the persist/rollback protocol.

// SetActiveDay selects the day at index i, clamped into the valid range.
func (e *Engine) SetActiveDay(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trip.ActiveDayIndex = i
	e.trip.ClampActiveDay()
}

// AddDay appends a new empty day labeled "Day N" and returns its id.
func (e *Engine) AddDay() domain.DayID {
	e.mu.Lock()
	defer e.mu.Unlock()
	day := domain.Day{
		ID:    e.newDayID(),
		Title: fmt.Sprintf("Day %d", len(e.trip.Days)+1),
	}
	e.trip.Days = append(e.trip.Days, day)
	return day.ID
}

// RemoveDay deletes the given day. The last remaining day is never removed;
// unknown ids are ignored. The active-day index is clamped afterwards.
func (e *Engine) RemoveDay(dayID domain.DayID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.trip.Days) <= 1 {
		return
	}
	for i := range e.trip.Days {
		if e.trip.Days[i].ID == dayID {
			e.trip.Days = append(e.trip.Days[:i], e.trip.Days[i+1:]...)
			e.trip.ClampActiveDay()
			return
		}
	}
}

// SetStopMeta patches metadata of a stop on the active day. Unknown stop ids
// are ignored. Note and cost are clearable via explicit nulls.
func (e *Engine) SetStopMeta(stopID domain.StopID, patch StopMetaPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	day := e.trip.ActiveDay()
	idx := day.StopIndex(stopID)
	if idx < 0 {
		return
	}
	s := &day.Stops[idx]
	if patch.Title.IsSpecified() && !patch.Title.IsNull() {
		s.Title = domain.NormalizeTitle(patch.Title.Value())
	}
	if patch.Lat.IsSpecified() && !patch.Lat.IsNull() {
		s.Lat = patch.Lat.Value()
	}
	if patch.Lng.IsSpecified() && !patch.Lng.IsNull() {
		s.Lng = patch.Lng.Value()
	}
	if patch.Note.IsSpecified() {
		if patch.Note.IsNull() {
			s.Note = nil
		} else {
			n := patch.Note.Value()
			s.Note = &n
		}
	}
	if patch.Cost.IsSpecified() {
		if patch.Cost.IsNull() {
			s.Cost = nil
		} else {
			c := patch.Cost.Value()
			s.Cost = &c
		}
	}
}

// SetRouteStats caches the route summary for the active day.
func (e *Engine) SetRouteStats(distanceText, durationText string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	day := e.trip.ActiveDay()
	day.DistanceText = distanceText
	day.DurationText = durationText
}

// ReplaceTrip swaps in a wholesale-loaded trip, clamping the active-day index.
// Trips without days get a single empty day so the active-day invariant holds.
func (e *Engine) ReplaceTrip(t domain.Trip) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t = domain.CloneTrip(t)
	if len(t.Days) == 0 {
		t.Days = []domain.Day{{ID: e.newDayID(), Title: "Day 1"}}
	}
	t.ClampActiveDay()
	e.trip = t
}

// ReloadActiveDay replaces the active day's stops with the persisted state
// from the store. Fresh client-local ids are assigned; durable ids come from
// storage. Pending operations against the day keep their snapshots and roll
// back against the reloaded state if they fail.
func (e *Engine) ReloadActiveDay(ctx context.Context) error {
	e.mu.Lock()
	dayID := e.trip.ActiveDay().ID
	e.mu.Unlock()

	persisted, err := e.store.ListDayStops(ctx, dayID)
	if err != nil {
		return fmt.Errorf("reload day %s: %w", dayID, err)
	}

	stops := make([]domain.Stop, 0, len(persisted))
	for _, p := range persisted {
		stops = append(stops, domain.Stop{
			ID:         e.newStopID(),
			Title:      p.Title,
			Lat:        p.Lat,
			Lng:        p.Lng,
			Note:       p.Note,
			Cost:       p.Cost,
			DayPlaceID: p.DayPlaceID,
			PlaceID:    p.PlaceID,
		})
	}

	e.mu.Lock()
	for i := range e.trip.Days {
		if e.trip.Days[i].ID == dayID {
			e.trip.Days[i].Stops = stops
			break
		}
	}
	e.mu.Unlock()
	return nil
}

// TotalCost sums stop costs across the whole trip.
func (e *Engine) TotalCost() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trip.TotalCost()
}

// ActiveDayCost sums stop costs for the active day.
func (e *Engine) ActiveDayCost() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trip.ActiveDay().Cost()
}
