package stopstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

type placeRow struct {
	id   domain.PlaceID
	name string
	lat  float64
	lng  float64
}

type dayPlaceRow struct {
	id        domain.DayPlaceID
	dayID     domain.DayID
	placeID   domain.PlaceID
	sortOrder int
	note      *string
	costCents *int64
}

// Store is an in-memory implementation of stopstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	places    map[domain.PlaceID]placeRow
	dayPlaces map[domain.DayPlaceID]dayPlaceRow
}

func NewStore() *Store {
	return &Store{
		places:    make(map[domain.PlaceID]placeRow),
		dayPlaces: make(map[domain.DayPlaceID]dayPlaceRow),
	}
}

func (s *Store) AddStop(ctx context.Context, dayID domain.DayID, data stopstore.AddStopData, sortOrder int) (stopstore.AddedStop, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reuse an existing place with identical name and coordinates.
	var placeID domain.PlaceID
	for _, p := range s.places {
		if p.name == data.Title && p.lat == data.Lat && p.lng == data.Lng {
			placeID = p.id
			break
		}
	}
	if placeID == "" {
		placeID = domain.PlaceID(uuid.NewString())
		s.places[placeID] = placeRow{id: placeID, name: data.Title, lat: data.Lat, lng: data.Lng}
	}

	dp := dayPlaceRow{
		id:        domain.DayPlaceID(uuid.NewString()),
		dayID:     dayID,
		placeID:   placeID,
		sortOrder: sortOrder,
		note:      cloneStringPtr(data.Note),
		costCents: costToCents(data.Cost),
	}
	s.dayPlaces[dp.id] = dp

	return stopstore.AddedStop{DayPlaceID: dp.id, PlaceID: placeID}, nil
}

func (s *Store) RemoveStop(ctx context.Context, dayPlaceID domain.DayPlaceID) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dayPlaces[dayPlaceID]; !ok {
		return stopstore.ErrNotFound
	}
	delete(s.dayPlaces, dayPlaceID)
	return nil
}

func (s *Store) ReorderStops(ctx context.Context, dayID domain.DayID, dayPlaceIDs []domain.DayPlaceID, sortOrders []int) error {
	_ = ctx
	if len(dayPlaceIDs) != len(sortOrders) {
		return stopstore.ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate first so a partial reorder is never written.
	for _, id := range dayPlaceIDs {
		dp, ok := s.dayPlaces[id]
		if !ok || dp.dayID != dayID {
			return stopstore.ErrNotFound
		}
	}
	for i, id := range dayPlaceIDs {
		dp := s.dayPlaces[id]
		dp.sortOrder = sortOrders[i]
		s.dayPlaces[id] = dp
	}
	return nil
}

func (s *Store) ListDayStops(ctx context.Context, dayID domain.DayID) ([]stopstore.PersistedStop, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]stopstore.PersistedStop, 0)
	for _, dp := range s.dayPlaces {
		if dp.dayID != dayID {
			continue
		}
		p := s.places[dp.placeID]
		out = append(out, stopstore.PersistedStop{
			DayPlaceID: dp.id,
			PlaceID:    dp.placeID,
			Title:      p.name,
			Lat:        p.lat,
			Lng:        p.lng,
			Note:       cloneStringPtr(dp.note),
			Cost:       centsToCost(dp.costCents),
			SortOrder:  dp.sortOrder,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].DayPlaceID < out[j].DayPlaceID
	})
	return out, nil
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func costToCents(cost *float64) *int64 {
	if cost == nil {
		return nil
	}
	c := int64(*cost*100 + 0.5)
	return &c
}

func centsToCost(cents *int64) *float64 {
	if cents == nil {
		return nil
	}
	c := float64(*cents) / 100
	return &c
}
