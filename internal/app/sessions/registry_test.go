package sessions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	memstopstore "github.com/tripdraft/itinerary-api/internal/adapters/memory/stopstore"
	"github.com/tripdraft/itinerary-api/internal/app/sessions"
	"github.com/tripdraft/itinerary-api/internal/domain"
	platformclock "github.com/tripdraft/itinerary-api/internal/platform/clock"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
)

type noopOptimizer struct{}

func (noopOptimizer) Optimize(context.Context, domain.DayID, []optimizer.Place, optimizer.TravelMode) (optimizer.Route, error) {
	return optimizer.Route{}, optimizer.ErrUnavailable
}

func newRegistry() *sessions.Registry {
	return sessions.NewRegistry(memstopstore.NewStore(), noopOptimizer{}, platformclock.NewSystemClock(), zerolog.Nop())
}

func TestRegistry_CreateGetClose(t *testing.T) {
	t.Parallel()

	r := newRegistry()

	a := r.Create()
	b := r.Create()
	if a.ID == b.ID {
		t.Fatalf("session ids must be unique")
	}
	if a.Engine == nil || a.Notifications == nil || a.Optimize == nil {
		t.Fatalf("session not fully wired: %+v", a)
	}

	got, err := r.Get(a.ID)
	if err != nil || got != a {
		t.Fatalf("Get(%s) = %v, %v", a.ID, got, err)
	}

	r.Close(a.ID)
	if _, err := r.Get(a.ID); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("closed session should be gone, got %v", err)
	}
	// Closing twice or closing an unknown id is a no-op.
	r.Close(a.ID)

	if _, err := r.Get(b.ID); err != nil {
		t.Fatalf("other sessions must survive: %v", err)
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	a := r.Create()
	b := r.Create()

	a.Notifications.Enqueue(domain.Notification{Severity: domain.SeverityInfo, Title: "only in a"})
	a.Engine.AddDay()

	if b.Notifications.Len() != 0 {
		t.Fatalf("notification leaked across sessions")
	}
	if len(b.Engine.Trip().Days) != 1 {
		t.Fatalf("trip state leaked across sessions")
	}
}
