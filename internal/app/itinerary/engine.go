package itinerary

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripdraft/itinerary-api/internal/app/notify"
	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/clock"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

const successToastDuration = 3 * time.Second

// Engine owns the trip state for one planning session and mediates every
// structural change through an optimistic-apply → persist → confirm|rollback
// protocol. Mutation outcomes are reported through the notification queue;
// persistence errors never escape the engine.
//
// The mutex guards trip state and the pending-operation map. It is held only
// across state transitions, never across a store call, so readers observe the
// optimistic state while a write is in flight. Each mutation is either
// confirmed (record discarded) or rolled back (record consumed by the
// rollback); there is no other terminal state.
type Engine struct {
	mu      sync.Mutex
	trip    domain.Trip
	pending map[domain.OperationID]operation

	store stopstore.Store
	queue *notify.Queue
	clk   clock.Clock
	log   zerolog.Logger

	newStopID func() domain.StopID
	newOpID   func() domain.OperationID
	newDayID  func() domain.DayID
}

func NewEngine(store stopstore.Store, queue *notify.Queue, clk clock.Clock, log zerolog.Logger) *Engine {
	e := &Engine{
		pending:   make(map[domain.OperationID]operation),
		store:     store,
		queue:     queue,
		clk:       clk,
		log:       log.With().Str("component", "itinerary-engine").Logger(),
		newStopID: func() domain.StopID { return domain.StopID(uuid.NewString()) },
		newOpID:   func() domain.OperationID { return domain.OperationID(uuid.NewString()) },
		newDayID:  func() domain.DayID { return domain.DayID(uuid.NewString()) },
	}
	e.trip = domain.Trip{
		ID:    domain.TripID(uuid.NewString()),
		Title: "Untitled Trip",
		Days: []domain.Day{
			{ID: e.newDayID(), Title: "Day 1"},
		},
		ActiveDayIndex: 0,
	}
	return e
}

// SetIDGeneratorsForTest overrides id generation for deterministic tests.
// Nil arguments leave the corresponding generator unchanged.
func (e *Engine) SetIDGeneratorsForTest(stopID func() domain.StopID, opID func() domain.OperationID, dayID func() domain.DayID) {
	if stopID != nil {
		e.newStopID = stopID
	}
	if opID != nil {
		e.newOpID = opID
	}
	if dayID != nil {
		e.newDayID = dayID
	}
}

// Trip returns a deep copy of the current trip state.
func (e *Engine) Trip() domain.Trip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneTrip(e.trip)
}

// ActiveDay returns a deep copy of the currently active day.
func (e *Engine) ActiveDay() domain.Day {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneDay(*e.trip.ActiveDay())
}

// AddStop appends a new stop to the active day optimistically, then persists
// it. On success the stop is upgraded in place with its durable ids; on
// failure the append is rolled back and a retryable error notification is
// queued. The generated stop id is returned either way.
func (e *Engine) AddStop(ctx context.Context, in AddStopInput) domain.StopID {
	e.mu.Lock()
	day := e.trip.ActiveDay()
	dayID := day.ID
	stopID := e.newStopID()
	sortOrder := len(day.Stops)

	stop := domain.Stop{
		ID:    stopID,
		Title: in.Title,
		Lat:   in.Lat,
		Lng:   in.Lng,
	}
	if in.Note != nil {
		n := *in.Note
		stop.Note = &n
	}
	if in.Cost != nil {
		c := *in.Cost
		stop.Cost = &c
	}
	day.Stops = append(day.Stops, stop)

	op := &addStopOp{
		operationBase: operationBase{opID: e.newOpID(), at: e.clk.Now(), dayID: dayID},
		stopID:        stopID,
	}
	e.pending[op.id()] = op
	e.mu.Unlock()

	added, err := e.store.AddStop(ctx, dayID, stopstore.AddStopData{
		Title: in.Title,
		Lat:   in.Lat,
		Lng:   in.Lng,
		Note:  in.Note,
		Cost:  in.Cost,
	}, sortOrder)
	if err != nil {
		e.fail(op, err, "Failed to add stop", func() { e.AddStop(context.Background(), in) })
		return stopID
	}

	e.mu.Lock()
	if day := op.dayIn(&e.trip); day != nil {
		for i := range day.Stops {
			if day.Stops[i].ID == stopID {
				day.Stops[i].DayPlaceID = added.DayPlaceID
				day.Stops[i].PlaceID = added.PlaceID
				break
			}
		}
	}
	delete(e.pending, op.id())
	e.mu.Unlock()

	e.queue.Enqueue(domain.Notification{
		Severity: domain.SeveritySuccess,
		Title:    "Stop added",
		Message:  fmt.Sprintf("%s has been added to your day.", in.Title),
		Duration: successToastDuration,
	})
	return stopID
}

// RemoveStop removes a stop from the active day optimistically, then deletes
// its persisted join record. It is a no-op when the stop is unknown or not yet
// durable: a stop cannot be removed before its add has been confirmed.
func (e *Engine) RemoveStop(ctx context.Context, stopID domain.StopID) {
	e.mu.Lock()
	day := e.trip.ActiveDay()
	idx := day.StopIndex(stopID)
	if idx < 0 || !day.Stops[idx].Durable() {
		e.mu.Unlock()
		return
	}
	snapshot := domain.CloneStop(day.Stops[idx])
	day.Stops = append(day.Stops[:idx], day.Stops[idx+1:]...)

	op := &removeStopOp{
		operationBase: operationBase{opID: e.newOpID(), at: e.clk.Now(), dayID: day.ID},
		stop:          snapshot,
		sortOrder:     idx,
	}
	e.pending[op.id()] = op
	e.mu.Unlock()

	if err := e.store.RemoveStop(ctx, snapshot.DayPlaceID); err != nil {
		e.fail(op, err, "Failed to remove stop", func() { e.RemoveStop(context.Background(), stopID) })
		return
	}

	e.discard(op)
	e.queue.Enqueue(domain.Notification{
		Severity: domain.SeveritySuccess,
		Title:    "Stop removed",
		Message:  fmt.Sprintf("%s has been removed from your day.", snapshot.Title),
		Duration: successToastDuration,
	})
}

// ReorderStops moves the stop at from to position to within the active day
// using single-element move semantics, then persists the new sort order.
// from == to and out-of-range indices are no-ops: no state change, no store call.
func (e *Engine) ReorderStops(ctx context.Context, from, to int) {
	e.mu.Lock()
	day := e.trip.ActiveDay()
	n := len(day.Stops)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		e.mu.Unlock()
		return
	}

	originalOrder := stopIDs(day.Stops)

	moved := day.Stops[from]
	rest := append(append([]domain.Stop{}, day.Stops[:from]...), day.Stops[from+1:]...)
	day.Stops = append(append(append([]domain.Stop{}, rest[:to]...), moved), rest[to:]...)

	op := &reorderStopsOp{
		operationBase: operationBase{opID: e.newOpID(), at: e.clk.Now(), dayID: day.ID},
		originalOrder: originalOrder,
		newOrder:      stopIDs(day.Stops),
	}
	e.pending[op.id()] = op
	dayID := day.ID
	dayPlaceIDs, sortOrders := durablePositions(day.Stops)
	e.mu.Unlock()

	if err := e.store.ReorderStops(ctx, dayID, dayPlaceIDs, sortOrders); err != nil {
		e.fail(op, err, "Failed to reorder stops", func() { e.ReorderStops(context.Background(), from, to) })
		return
	}
	e.discard(op)
}

// OptimizeDay applies an externally supplied visiting order to the active day
// and persists it. The order must contain exactly the day's current stop ids;
// a mismatched order is rejected without mutating anything rather than
// silently dropping stops. The return value reports whether persistence
// succeeded, so callers can gate a follow-up summary notification.
func (e *Engine) OptimizeDay(ctx context.Context, newOrder []domain.StopID) bool {
	e.mu.Lock()
	day := e.trip.ActiveDay()

	reordered, ok := permute(day.Stops, newOrder)
	if !ok {
		e.mu.Unlock()
		e.log.Warn().Str("day_id", string(day.ID)).Msg("optimized order does not match current stops; rejecting")
		e.queue.Enqueue(domain.Notification{
			Severity: domain.SeverityWarning,
			Title:    "Route out of date",
			Message:  "The optimized order no longer matches the day's stops. Try optimizing again.",
		})
		return false
	}

	originalOrder := stopIDs(day.Stops)
	day.Stops = reordered

	op := &reorderStopsOp{
		operationBase: operationBase{opID: e.newOpID(), at: e.clk.Now(), dayID: day.ID},
		originalOrder: originalOrder,
		newOrder:      append([]domain.StopID(nil), newOrder...),
	}
	e.pending[op.id()] = op
	dayID := day.ID
	dayPlaceIDs, sortOrders := durablePositions(day.Stops)
	e.mu.Unlock()

	if err := e.store.ReorderStops(ctx, dayID, dayPlaceIDs, sortOrders); err != nil {
		order := append([]domain.StopID(nil), newOrder...)
		e.fail(op, err, "Failed to save optimized route", func() { e.OptimizeDay(context.Background(), order) })
		return false
	}
	e.discard(op)
	return true
}

// Notifications exposes the session's notification queue.
func (e *Engine) Notifications() *notify.Queue { return e.queue }

// PendingOperations returns a snapshot of in-flight mutations, oldest first.
func (e *Engine) PendingOperations() []OperationInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]OperationInfo, 0, len(e.pending))
	for _, op := range e.pending {
		out = append(out, op.info())
	}
	sortOperations(out)
	return out
}

// discard drops a confirmed operation record.
func (e *Engine) discard(op operation) {
	e.mu.Lock()
	delete(e.pending, op.id())
	e.mu.Unlock()
}

// fail handles a persistence failure: roll the optimistic mutation back,
// consume its record, and queue exactly one retryable error notification.
// The retry re-attempts the user intent as a fresh operation.
func (e *Engine) fail(op operation, err error, title string, retry func()) {
	e.log.Warn().Err(err).
		Str("operation", string(op.kind())).
		Str("operation_id", string(op.id())).
		Msg("persistence failed; rolling back")

	e.mu.Lock()
	op.rollback(&e.trip)
	delete(e.pending, op.id())
	e.mu.Unlock()

	e.queue.Enqueue(domain.Notification{
		Severity: domain.SeverityError,
		Title:    title,
		Message:  err.Error(),
		Action:   &domain.NotificationAction{Label: "Retry", Run: retry},
	})
}

func stopIDs(stops []domain.Stop) []domain.StopID {
	out := make([]domain.StopID, len(stops))
	for i, s := range stops {
		out[i] = s.ID
	}
	return out
}

// durablePositions returns the durable join-record ids of stops in their
// current order, paired with each stop's 0-based position. Stops without a
// durable id have no persisted position to update and are filtered out.
func durablePositions(stops []domain.Stop) ([]domain.DayPlaceID, []int) {
	ids := make([]domain.DayPlaceID, 0, len(stops))
	orders := make([]int, 0, len(stops))
	for i, s := range stops {
		if s.Durable() {
			ids = append(ids, s.DayPlaceID)
			orders = append(orders, i)
		}
	}
	return ids, orders
}

// permute rebuilds stops in the given id order. It reports false when order is
// not a 1:1 permutation of the current stop ids.
func permute(stops []domain.Stop, order []domain.StopID) ([]domain.Stop, bool) {
	if len(order) != len(stops) {
		return nil, false
	}
	byID := make(map[domain.StopID]domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}
	out := make([]domain.Stop, 0, len(order))
	for _, id := range order {
		s, ok := byID[id]
		if !ok {
			return nil, false
		}
		out = append(out, s)
		delete(byID, id)
	}
	return out, true
}

func sortOperations(ops []OperationInfo) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].At.Equal(ops[j].At) {
			return ops[i].At.Before(ops[j].At)
		}
		return ops[i].ID < ops[j].ID
	})
}
