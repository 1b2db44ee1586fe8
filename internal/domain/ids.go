package domain

// TripID is an internal identifier for a trip being planned.
type TripID string

// DayID is an internal identifier for one day within a trip.
type DayID string

// StopID is a client-local identifier for a stop. It is assigned when the stop
// is created in memory, before any persisted counterpart exists.
type StopID string

// OperationID identifies one in-flight mutation attempt.
type OperationID string

// NotificationID identifies a queued user-facing notification.
type NotificationID string

// DayPlaceID is the durable identifier of the persisted day↔place join record.
// We model it as an opaque identifier: its format is controlled by storage.
type DayPlaceID string

// PlaceID is the durable identifier of the persisted place entity.
type PlaceID string
