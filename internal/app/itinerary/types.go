package itinerary

import (
	"time"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// AddStopInput is the payload for a new stop on the active day.
type AddStopInput struct {
	Title string
	Lat   float64
	Lng   float64
	Note  *string
	Cost  *float64
}

// StopMetaPatch updates stop metadata on the active day.
// Null clears the field where the field is clearable.
type StopMetaPatch struct {
	Title Optional[string]
	Lat   Optional[float64]
	Lng   Optional[float64]
	Note  Optional[string]
	Cost  Optional[float64]
}

// OperationKind tags the pending-operation debug view.
type OperationKind string

const (
	OperationAddStop      OperationKind = "add_stop"
	OperationRemoveStop   OperationKind = "remove_stop"
	OperationReorderStops OperationKind = "reorder_stops"
)

// OperationInfo is a read-only view of one in-flight mutation.
type OperationInfo struct {
	ID    domain.OperationID
	Kind  OperationKind
	DayID domain.DayID
	At    time.Time
}
