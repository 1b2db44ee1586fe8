package contracttest

import (
	"context"
	"errors"
	"testing"

	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

type CleanupFunc = func()

type StopStoreFactory func(t *testing.T) (stopstore.Store, CleanupFunc)

// RunStopStore exercises the behavioral contract every stopstore.Store
// implementation must satisfy. Adapters run it from their own contract_test.
func RunStopStore(t *testing.T, newStore StopStoreFactory) {
	t.Helper()

	note := "check opening hours"
	cost := 12.50

	t.Run("AddStopAssignsDurableIDs", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()
		added, err := store.AddStop(ctx, "day-1", stopstore.AddStopData{
			Title: "Golden Gate Bridge", Lat: 37.8199, Lng: -122.4783, Note: &note, Cost: &cost,
		}, 0)
		if err != nil {
			t.Fatalf("AddStop: %v", err)
		}
		if added.DayPlaceID == "" || added.PlaceID == "" {
			t.Fatalf("expected durable ids, got %+v", added)
		}

		got, err := store.ListDayStops(ctx, "day-1")
		if err != nil {
			t.Fatalf("ListDayStops: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 stop, got %d", len(got))
		}
		s := got[0]
		if s.DayPlaceID != added.DayPlaceID || s.PlaceID != added.PlaceID {
			t.Fatalf("id mismatch: %+v vs %+v", s, added)
		}
		if s.Title != "Golden Gate Bridge" || s.Lat != 37.8199 || s.Lng != -122.4783 {
			t.Fatalf("payload mismatch: %+v", s)
		}
		if s.Note == nil || *s.Note != note {
			t.Fatalf("note mismatch: %v", s.Note)
		}
		if s.Cost == nil || *s.Cost != cost {
			t.Fatalf("cost mismatch: %v", s.Cost)
		}
	})

	t.Run("AddStopReusesIdenticalPlace", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		a, err := store.AddStop(ctx, "day-1", stopstore.AddStopData{Title: "Pier 39", Lat: 37.8087, Lng: -122.4098}, 0)
		if err != nil {
			t.Fatalf("AddStop: %v", err)
		}
		b, err := store.AddStop(ctx, "day-2", stopstore.AddStopData{Title: "Pier 39", Lat: 37.8087, Lng: -122.4098}, 0)
		if err != nil {
			t.Fatalf("AddStop: %v", err)
		}
		if a.PlaceID != b.PlaceID {
			t.Fatalf("expected shared place id, got %s vs %s", a.PlaceID, b.PlaceID)
		}
		if a.DayPlaceID == b.DayPlaceID {
			t.Fatalf("expected distinct day place ids")
		}
	})

	t.Run("RemoveStop", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		added, err := store.AddStop(ctx, "day-1", stopstore.AddStopData{Title: "Muir Woods", Lat: 37.8970, Lng: -122.5811}, 0)
		if err != nil {
			t.Fatalf("AddStop: %v", err)
		}
		if err := store.RemoveStop(ctx, added.DayPlaceID); err != nil {
			t.Fatalf("RemoveStop: %v", err)
		}
		got, err := store.ListDayStops(ctx, "day-1")
		if err != nil {
			t.Fatalf("ListDayStops: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty day, got %d stops", len(got))
		}

		if err := store.RemoveStop(ctx, added.DayPlaceID); !errors.Is(err, stopstore.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ReorderStops", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		titles := []string{"A", "B", "C"}
		ids := make([]domain.DayPlaceID, len(titles))
		for i, title := range titles {
			added, err := store.AddStop(ctx, "day-1", stopstore.AddStopData{Title: title, Lat: float64(i), Lng: float64(-i)}, i)
			if err != nil {
				t.Fatalf("AddStop %s: %v", title, err)
			}
			ids[i] = added.DayPlaceID
		}

		// C, A, B
		if err := store.ReorderStops(ctx, "day-1",
			[]domain.DayPlaceID{ids[2], ids[0], ids[1]}, []int{0, 1, 2}); err != nil {
			t.Fatalf("ReorderStops: %v", err)
		}

		got, err := store.ListDayStops(ctx, "day-1")
		if err != nil {
			t.Fatalf("ListDayStops: %v", err)
		}
		want := []string{"C", "A", "B"}
		for i, w := range want {
			if got[i].Title != w {
				t.Fatalf("position %d: want %s, got %s", i, w, got[i].Title)
			}
		}
	})

	t.Run("ReorderLengthMismatchFailsFast", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		err := store.ReorderStops(ctx, "day-1", []domain.DayPlaceID{"dp-1", "dp-2"}, []int{0})
		if !errors.Is(err, stopstore.ErrLengthMismatch) {
			t.Fatalf("expected ErrLengthMismatch, got %v", err)
		}
	})

	t.Run("ReorderUnknownIDNotPersisted", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		added, err := store.AddStop(ctx, "day-1", stopstore.AddStopData{Title: "A", Lat: 1, Lng: 1}, 0)
		if err != nil {
			t.Fatalf("AddStop: %v", err)
		}
		err = store.ReorderStops(ctx, "day-1",
			[]domain.DayPlaceID{added.DayPlaceID, "missing"}, []int{5, 0})
		if !errors.Is(err, stopstore.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		got, err := store.ListDayStops(ctx, "day-1")
		if err != nil {
			t.Fatalf("ListDayStops: %v", err)
		}
		if got[0].SortOrder != 0 {
			t.Fatalf("failed reorder must not persist partial writes, sort=%d", got[0].SortOrder)
		}
	})

	t.Run("ListDayStopsScopedToDay", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		if _, err := store.AddStop(ctx, "day-1", stopstore.AddStopData{Title: "A", Lat: 1, Lng: 1}, 0); err != nil {
			t.Fatalf("AddStop: %v", err)
		}
		if _, err := store.AddStop(ctx, "day-2", stopstore.AddStopData{Title: "B", Lat: 2, Lng: 2}, 0); err != nil {
			t.Fatalf("AddStop: %v", err)
		}

		got, err := store.ListDayStops(ctx, "day-1")
		if err != nil {
			t.Fatalf("ListDayStops: %v", err)
		}
		if len(got) != 1 || got[0].Title != "A" {
			t.Fatalf("expected only day-1 stops, got %+v", got)
		}
	})
}

func open(t *testing.T, newStore StopStoreFactory) stopstore.Store {
	t.Helper()
	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return store
}
