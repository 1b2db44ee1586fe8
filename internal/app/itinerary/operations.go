package itinerary

import (
	"time"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// operation is the undo snapshot captured when a mutation begins. Each variant
// carries exactly the data its own rollback needs; rollback is computed against
// the trip state at rollback time, which may already include changes from other
// in-flight mutations.
type operation interface {
	id() domain.OperationID
	kind() OperationKind
	info() OperationInfo

	// rollback restores the pre-mutation shape of the targeted day in place.
	rollback(t *domain.Trip)
}

type operationBase struct {
	opID  domain.OperationID
	at    time.Time
	dayID domain.DayID
}

func (b operationBase) id() domain.OperationID { return b.opID }

func (b operationBase) dayIn(t *domain.Trip) *domain.Day {
	for i := range t.Days {
		if t.Days[i].ID == b.dayID {
			return &t.Days[i]
		}
	}
	return nil
}

// addStopOp undoes an optimistic append by removing the generated stop id.
// Safe regardless of concurrent changes: removal is by id, not index.
type addStopOp struct {
	operationBase
	stopID domain.StopID
}

func (op *addStopOp) kind() OperationKind { return OperationAddStop }

func (op *addStopOp) info() OperationInfo {
	return OperationInfo{ID: op.opID, Kind: op.kind(), DayID: op.dayID, At: op.at}
}

func (op *addStopOp) rollback(t *domain.Trip) {
	day := op.dayIn(t)
	if day == nil {
		return
	}
	for i, s := range day.Stops {
		if s.ID == op.stopID {
			day.Stops = append(day.Stops[:i], day.Stops[i+1:]...)
			return
		}
	}
}

// removeStopOp undoes an optimistic removal by re-inserting the captured stop,
// with its original id and durable ids, at its original position. The position
// is best-effort if concurrent reorders moved things around in the meantime.
type removeStopOp struct {
	operationBase
	stop      domain.Stop
	sortOrder int
}

func (op *removeStopOp) kind() OperationKind { return OperationRemoveStop }

func (op *removeStopOp) info() OperationInfo {
	return OperationInfo{ID: op.opID, Kind: op.kind(), DayID: op.dayID, At: op.at}
}

func (op *removeStopOp) rollback(t *domain.Trip) {
	day := op.dayIn(t)
	if day == nil {
		return
	}
	at := op.sortOrder
	if at > len(day.Stops) {
		at = len(day.Stops)
	}
	restored := domain.CloneStop(op.stop)
	day.Stops = append(day.Stops[:at], append([]domain.Stop{restored}, day.Stops[at:]...)...)
}

// reorderStopsOp undoes a reorder (single move or bulk) by rebuilding the
// original id order from whichever stops are still present; ids that vanished
// since are omitted.
type reorderStopsOp struct {
	operationBase
	originalOrder []domain.StopID
	newOrder      []domain.StopID
}

func (op *reorderStopsOp) kind() OperationKind { return OperationReorderStops }

func (op *reorderStopsOp) info() OperationInfo {
	return OperationInfo{ID: op.opID, Kind: op.kind(), DayID: op.dayID, At: op.at}
}

func (op *reorderStopsOp) rollback(t *domain.Trip) {
	day := op.dayIn(t)
	if day == nil {
		return
	}
	current := make(map[domain.StopID]domain.Stop, len(day.Stops))
	for _, s := range day.Stops {
		current[s.ID] = s
	}
	restored := make([]domain.Stop, 0, len(day.Stops))
	for _, id := range op.originalOrder {
		if s, ok := current[id]; ok {
			restored = append(restored, s)
			delete(current, id)
		}
	}
	// Stops added concurrently (not part of the original order) keep their
	// relative order at the end.
	for _, s := range day.Stops {
		if _, ok := current[s.ID]; ok {
			restored = append(restored, s)
		}
	}
	day.Stops = restored
}
