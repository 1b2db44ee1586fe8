package optimizer

import (
	"context"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// TravelMode selects how legs between stops are routed.
type TravelMode string

const (
	TravelModeDriving   TravelMode = "DRIVING"
	TravelModeWalking   TravelMode = "WALKING"
	TravelModeTransit   TravelMode = "TRANSIT"
	TravelModeBicycling TravelMode = "BICYCLING"
)

// Place is one candidate stop sent to the optimizer.
type Place struct {
	ID   domain.StopID
	Lat  float64
	Lng  float64
	Name string
}

// Route is the optimizer's answer: the visiting sequence plus summary stats.
// The engine only consumes Order; the distance/duration fields are surfaced
// verbatim to the user.
type Route struct {
	Order     []domain.StopID
	Distances []float64 // meters, per leg
	Durations []float64 // seconds, per leg

	TotalDistance float64 // meters
	TotalDuration float64 // seconds
}

// Optimizer computes a visiting order for a day's stops.
type Optimizer interface {
	Optimize(ctx context.Context, dayID domain.DayID, places []Place, mode TravelMode) (Route, error)
}
