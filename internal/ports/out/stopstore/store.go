package stopstore

import (
	"context"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// AddStopData is the payload persisted for a new stop.
type AddStopData struct {
	Title string
	Lat   float64
	Lng   float64
	Note  *string
	Cost  *float64
}

// AddedStop carries the durable identifiers assigned by storage.
type AddedStop struct {
	DayPlaceID domain.DayPlaceID
	PlaceID    domain.PlaceID
}

// PersistedStop is the storage read model for one stop of a day,
// returned in sort order.
type PersistedStop struct {
	DayPlaceID domain.DayPlaceID
	PlaceID    domain.PlaceID
	Title      string
	Lat        float64
	Lng        float64
	Note       *string
	Cost       *float64
	SortOrder  int
}

// Store is the persistence gateway for day itineraries. Implementations may be
// a database, a remote API, or an in-memory double; the engine treats it as a
// black box that either confirms a write or fails with a descriptive error.
type Store interface {
	// AddStop persists a new stop on the given day at the given sort order and
	// returns its durable identifiers.
	AddStop(ctx context.Context, dayID domain.DayID, data AddStopData, sortOrder int) (AddedStop, error)

	// RemoveStop deletes the join record identified by dayPlaceID.
	// Returns ErrNotFound when no such record exists.
	RemoveStop(ctx context.Context, dayPlaceID domain.DayPlaceID) error

	// ReorderStops rewrites the sort order of the given day's join records.
	// dayPlaceIDs and sortOrders must have equal length; violating that is a
	// caller programming error and fails fast with ErrLengthMismatch.
	ReorderStops(ctx context.Context, dayID domain.DayID, dayPlaceIDs []domain.DayPlaceID, sortOrders []int) error

	// ListDayStops returns the persisted stops of a day ordered by sort order.
	ListDayStops(ctx context.Context, dayID domain.DayID) ([]PersistedStop, error)
}
