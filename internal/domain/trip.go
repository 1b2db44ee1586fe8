package domain

// Stop is a single point-of-interest entry within a Day.
//
// A stop starts out client-local: it has a StopID but no durable identifiers.
// Once storage confirms the write, DayPlaceID and PlaceID are filled in and the
// stop is considered durable. Operations that must reference persisted state
// (remove, reorder) skip stops that are not durable yet.
type Stop struct {
	ID    StopID
	Title string

	Lat float64
	Lng float64

	Note *string
	Cost *float64 // USD

	DayPlaceID DayPlaceID
	PlaceID    PlaceID
}

// Durable reports whether the stop has a persisted join record behind it.
func (s Stop) Durable() bool { return s.DayPlaceID != "" }

// Day is an ordered collection of stops for one day of a trip.
// Stop order is the canonical itinerary order: index 0 is visited first.
type Day struct {
	ID    DayID
	Title string // display label, e.g. "Day 1"
	Stops []Stop

	// Cached route summary from the last optimization; empty when unknown.
	DistanceText string
	DurationText string
}

// Cost sums the costs of all stops in the day. Stops without a cost count as zero.
func (d Day) Cost() float64 {
	var sum float64
	for _, s := range d.Stops {
		if s.Cost != nil {
			sum += *s.Cost
		}
	}
	return sum
}

// StopIndex returns the position of the stop with the given id, or -1.
func (d Day) StopIndex(id StopID) int {
	for i, s := range d.Stops {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Trip is the full multi-day itinerary being planned.
//
// Invariant: ActiveDayIndex is always a valid index into Days. Every structural
// change to Days must go through ClampActiveDay (or set the index explicitly to
// a known-valid value).
type Trip struct {
	ID    TripID
	Title string

	Days           []Day
	ActiveDayIndex int
}

// ActiveDay returns a pointer to the currently active day.
// Callers must not retain it across structural changes to Days.
func (t *Trip) ActiveDay() *Day {
	return &t.Days[t.ActiveDayIndex]
}

// ClampActiveDay restores the active-day invariant after Days changed shape.
func (t *Trip) ClampActiveDay() {
	if t.ActiveDayIndex < 0 {
		t.ActiveDayIndex = 0
	}
	if max := len(t.Days) - 1; t.ActiveDayIndex > max {
		t.ActiveDayIndex = max
	}
}

// TotalCost sums costs across every day of the trip.
func (t Trip) TotalCost() float64 {
	var sum float64
	for _, d := range t.Days {
		sum += d.Cost()
	}
	return sum
}

// CloneTrip returns a deep copy safe to hand to readers.
func CloneTrip(t Trip) Trip {
	cp := t
	if t.Days != nil {
		cp.Days = make([]Day, len(t.Days))
		for i, d := range t.Days {
			cp.Days[i] = CloneDay(d)
		}
	}
	return cp
}

// CloneDay returns a deep copy of a day and its stops.
func CloneDay(d Day) Day {
	cp := d
	if d.Stops != nil {
		cp.Stops = make([]Stop, len(d.Stops))
		for i, s := range d.Stops {
			cp.Stops[i] = CloneStop(s)
		}
	}
	return cp
}

// CloneStop returns a copy of a stop with its pointer fields duplicated.
func CloneStop(s Stop) Stop {
	cp := s
	if s.Note != nil {
		n := *s.Note
		cp.Note = &n
	}
	if s.Cost != nil {
		c := *s.Cost
		cp.Cost = &c
	}
	return cp
}
