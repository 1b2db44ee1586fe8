package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tripdraft/itinerary-api/internal/adapters/httpapi"
	memstopstore "github.com/tripdraft/itinerary-api/internal/adapters/memory/stopstore"
	"github.com/tripdraft/itinerary-api/internal/app/sessions"
	"github.com/tripdraft/itinerary-api/internal/domain"
	platformclock "github.com/tripdraft/itinerary-api/internal/platform/clock"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

type stubOptimizer struct {
	route optimizer.Route
	err   error
}

func (s *stubOptimizer) Optimize(_ context.Context, _ domain.DayID, places []optimizer.Place, _ optimizer.TravelMode) (optimizer.Route, error) {
	if s.err != nil {
		return optimizer.Route{}, s.err
	}
	if len(s.route.Order) == 0 {
		// Default: reverse the visiting order.
		r := optimizer.Route{TotalDistance: 5000, TotalDuration: 1800}
		for i := len(places) - 1; i >= 0; i-- {
			r.Order = append(r.Order, places[i].ID)
		}
		return r, nil
	}
	return s.route, nil
}

// flakyStore wraps a real store and fails the next AddStop on demand, so
// tests can drive the rollback-and-retry path over HTTP.
type flakyStore struct {
	stopstore.Store
	failNextAdd bool
}

func (f *flakyStore) AddStop(ctx context.Context, dayID domain.DayID, data stopstore.AddStopData, sortOrder int) (stopstore.AddedStop, error) {
	if f.failNextAdd {
		f.failNextAdd = false
		return stopstore.AddedStop{}, errors.New("storage unavailable")
	}
	return f.Store.AddStop(ctx, dayID, data, sortOrder)
}

type testAPI struct {
	handler http.Handler
	store   *flakyStore
	opt     *stubOptimizer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := &flakyStore{Store: memstopstore.NewStore()}
	opt := &stubOptimizer{}
	registry := sessions.NewRegistry(store, opt, platformclock.NewSystemClock(), zerolog.Nop())
	return &testAPI{
		handler: httpapi.NewRouter(httpapi.NewHandlers(registry, zerolog.Nop())),
		store:   store,
		opt:     opt,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

type stopJSON struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Note       *string  `json:"note"`
	Cost       *float64 `json:"cost"`
	DayPlaceID string   `json:"dayPlaceId"`
	PlaceID    string   `json:"placeId"`
}

type dayJSON struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Stops        []stopJSON `json:"stops"`
	DistanceText string     `json:"distanceText"`
	DurationText string     `json:"durationText"`
	Cost         float64    `json:"cost"`
}

type tripJSON struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Days           []dayJSON `json:"days"`
	ActiveDayIndex int       `json:"activeDayIndex"`
	TotalCost      float64   `json:"totalCost"`
}

type notificationJSON struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	ActionLabel string `json:"actionLabel"`
}

func createSession(t *testing.T, a *testAPI) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[struct {
		SessionID string   `json:"sessionId"`
		Trip      tripJSON `json:"trip"`
	}](t, rec)
	require.NotEmpty(t, created.SessionID)
	require.Len(t, created.Trip.Days, 1)
	require.Equal(t, "Day 1", created.Trip.Days[0].Title)
	return created.SessionID
}

func addStop(t *testing.T, a *testAPI, sid, title string, lat, lng float64) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/stops", map[string]any{
		"title": title, "lat": lat, "lng": lng,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[struct {
		StopID string `json:"stopId"`
	}](t, rec)
	require.NotEmpty(t, res.StopID)
	return res.StopID
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	sid := createSession(t, a)

	rec := a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/trip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trip := decode[tripJSON](t, rec)
	require.Equal(t, "Untitled Trip", trip.Title)

	rec = a.do(t, http.MethodGet, "/v1/sessions/nope/trip", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/sessions/"+sid, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/trip", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopEndpoints(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	sid := createSession(t, a)

	s1 := addStop(t, a, sid, "Pier 39", 37.808, -122.41)
	s2 := addStop(t, a, sid, "Coit  Tower ", 37.802, -122.405)
	s3 := addStop(t, a, sid, "Ferry Building", 37.795, -122.393)

	rec := a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/trip", nil)
	trip := decode[tripJSON](t, rec)
	stops := trip.Days[0].Stops
	require.Len(t, stops, 3)
	require.Equal(t, "Coit Tower", stops[1].Title) // whitespace normalized
	for _, s := range stops {
		require.NotEmpty(t, s.DayPlaceID, "stop %s should be durable", s.Title)
		require.NotEmpty(t, s.PlaceID)
	}

	// Blank title is rejected before touching the engine.
	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/stops", map[string]any{"title": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Move the last stop to the front.
	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/stops/reorder", map[string]any{"from": 2, "to": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	trip = decode[tripJSON](t, rec)
	require.Equal(t, []string{s3, s1, s2}, []string{
		trip.Days[0].Stops[0].ID, trip.Days[0].Stops[1].ID, trip.Days[0].Stops[2].ID,
	})

	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/stops/reorder", map[string]any{"from": -1, "to": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/sessions/"+sid+"/stops/"+s1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trip = decode[tripJSON](t, rec)
	require.Len(t, trip.Days[0].Stops, 2)
}

func TestPatchStopMeta(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	sid := createSession(t, a)
	stopID := addStop(t, a, sid, "Museum", 37.8, -122.4)

	rec := a.do(t, http.MethodPatch, "/v1/sessions/"+sid+"/stops/"+stopID, map[string]any{
		"note": "buy tickets ahead",
		"cost": 24.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	trip := decode[tripJSON](t, rec)
	s := trip.Days[0].Stops[0]
	require.NotNil(t, s.Note)
	require.Equal(t, "buy tickets ahead", *s.Note)
	require.NotNil(t, s.Cost)
	require.Equal(t, 24.5, *s.Cost)
	require.Equal(t, 24.5, trip.TotalCost)

	// Explicit null clears the note; absent fields stay put.
	rec = a.do(t, http.MethodPatch, "/v1/sessions/"+sid+"/stops/"+stopID, map[string]any{
		"note": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	trip = decode[tripJSON](t, rec)
	s = trip.Days[0].Stops[0]
	require.Nil(t, s.Note)
	require.NotNil(t, s.Cost)

	// Title cannot be nulled out.
	rec = a.do(t, http.MethodPatch, "/v1/sessions/"+sid+"/stops/"+stopID, map[string]any{
		"title": nil,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDayEndpoints(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	sid := createSession(t, a)

	rec := a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/days", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decode[struct {
		DayID string   `json:"dayId"`
		Trip  tripJSON `json:"trip"`
	}](t, rec)
	require.Len(t, added.Trip.Days, 2)
	require.Equal(t, "Day 2", added.Trip.Days[1].Title)

	rec = a.do(t, http.MethodPut, "/v1/sessions/"+sid+"/active-day", map[string]any{"index": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, decode[tripJSON](t, rec).ActiveDayIndex)

	rec = a.do(t, http.MethodDelete, "/v1/sessions/"+sid+"/days/"+added.DayID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trip := decode[tripJSON](t, rec)
	require.Len(t, trip.Days, 1)
	require.Equal(t, 0, trip.ActiveDayIndex)
}

func TestOptimizeEndpoint(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	sid := createSession(t, a)

	s1 := addStop(t, a, sid, "A", 37.80, -122.41)
	addStop(t, a, sid, "B", 37.79, -122.40)
	s3 := addStop(t, a, sid, "C", 37.78, -122.39)

	rec := a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/optimize", map[string]any{"travelMode": "WALKING"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[struct {
		Applied bool     `json:"applied"`
		Trip    tripJSON `json:"trip"`
	}](t, rec)
	require.True(t, res.Applied)
	day := res.Trip.Days[0]
	require.Equal(t, s3, day.Stops[0].ID)
	require.Equal(t, s1, day.Stops[2].ID)
	require.Equal(t, "5.0 km", day.DistanceText)
	require.Equal(t, "30 min", day.DurationText)

	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/optimize", map[string]any{"travelMode": "TELEPORT"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationRetryFlow(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	sid := createSession(t, a)

	a.store.failNextAdd = true
	addStop(t, a, sid, "Alcatraz", 37.8267, -122.423)

	// The optimistic add rolled back and left a retryable error notification.
	rec := a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/trip", nil)
	require.Empty(t, decode[tripJSON](t, rec).Days[0].Stops)

	rec = a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Notifications []notificationJSON `json:"notifications"`
	}](t, rec)
	require.Len(t, list.Notifications, 1)
	n := list.Notifications[0]
	require.Equal(t, "error", n.Severity)
	require.Equal(t, "Failed to add stop", n.Title)
	require.Equal(t, "Retry", n.ActionLabel)

	// Retrying re-runs the add; the store works now.
	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/notifications/"+n.ID+"/retry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trip := decode[tripJSON](t, rec)
	require.Len(t, trip.Days[0].Stops, 1)
	require.Equal(t, "Alcatraz", trip.Days[0].Stops[0].Title)
	require.NotEmpty(t, trip.Days[0].Stops[0].DayPlaceID)

	// The consumed notification is gone; retrying it again is a 404.
	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/notifications/"+n.ID+"/retry", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Success notifications carry no action: retry is a 400, dismiss works.
	rec = a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/notifications", nil)
	list = decode[struct {
		Notifications []notificationJSON `json:"notifications"`
	}](t, rec)
	require.NotEmpty(t, list.Notifications)
	success := list.Notifications[len(list.Notifications)-1]
	require.Equal(t, "success", success.Severity)

	rec = a.do(t, http.MethodPost, "/v1/sessions/"+sid+"/notifications/"+success.ID+"/retry", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/sessions/"+sid+"/notifications/"+success.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPendingOperationsEmptyAfterConfirm(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	sid := createSession(t, a)
	addStop(t, a, sid, "Pier 39", 37.808, -122.41)

	rec := a.do(t, http.MethodGet, "/v1/sessions/"+sid+"/operations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ops := decode[struct {
		Operations []json.RawMessage `json:"operations"`
	}](t, rec)
	require.Empty(t, ops.Operations)
}
