package stopstore

import (
	"testing"

	"github.com/tripdraft/itinerary-api/internal/adapters/contracttest"
	stopstoreport "github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

func TestContract_SQLiteStopStore(t *testing.T) {
	contracttest.RunStopStore(t, func(t *testing.T) (stopstoreport.Store, func()) {
		t.Helper()
		store, err := Open(":memory:")
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return store, func() { _ = store.Close() }
	})
}
