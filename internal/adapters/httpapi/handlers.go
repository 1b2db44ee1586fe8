package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"
	"github.com/rs/zerolog"

	"github.com/tripdraft/itinerary-api/internal/app/itinerary"
	"github.com/tripdraft/itinerary-api/internal/app/sessions"
	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
)

// Handlers exposes the planning sessions over HTTP. Mutations respond with
// the post-mutation trip snapshot; persistence failures surface through the
// session's notification queue, mirroring the optimistic-UI contract.
type Handlers struct {
	registry *sessions.Registry
	log      zerolog.Logger
}

func NewHandlers(registry *sessions.Registry, log zerolog.Logger) *Handlers {
	return &Handlers{registry: registry, log: log.With().Str("component", "httpapi").Logger()}
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			writeNotFound(w, "session not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return s, true
}

// POST /v1/sessions
func (h *Handlers) createSession(w http.ResponseWriter, _ *http.Request) {
	s := h.registry.Create()
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": s.ID,
		"trip":      toTripDTO(s.Engine.Trip()),
	})
}

// DELETE /v1/sessions/{sessionID}
func (h *Handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	h.registry.Close(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/sessions/{sessionID}/trip
func (h *Handlers) getTrip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

type addStopRequest struct {
	Title string   `json:"title"`
	Lat   float64  `json:"lat"`
	Lng   float64  `json:"lng"`
	Note  *string  `json:"note,omitempty"`
	Cost  *float64 `json:"cost,omitempty"`
}

// POST /v1/sessions/{sessionID}/stops
func (h *Handlers) addStop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	title := domain.NormalizeTitle(req.Title)
	if title == "" {
		writeBadRequest(w, "title must be non-empty")
		return
	}

	stopID := s.Engine.AddStop(r.Context(), itinerary.AddStopInput{
		Title: title,
		Lat:   req.Lat,
		Lng:   req.Lng,
		Note:  req.Note,
		Cost:  req.Cost,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"stopId": string(stopID),
		"trip":   toTripDTO(s.Engine.Trip()),
	})
}

// DELETE /v1/sessions/{sessionID}/stops/{stopID}
func (h *Handlers) removeStop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Engine.RemoveStop(r.Context(), domain.StopID(chi.URLParam(r, "stopID")))
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// POST /v1/sessions/{sessionID}/stops/reorder
func (h *Handlers) reorderStops(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.From < 0 || req.To < 0 {
		writeBadRequest(w, "from and to must be non-negative")
		return
	}
	s.Engine.ReorderStops(r.Context(), req.From, req.To)
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

type stopMetaPatchRequest struct {
	Title nullable.Nullable[string]  `json:"title,omitempty"`
	Lat   nullable.Nullable[float64] `json:"lat,omitempty"`
	Lng   nullable.Nullable[float64] `json:"lng,omitempty"`
	Note  nullable.Nullable[string]  `json:"note,omitempty"`
	Cost  nullable.Nullable[float64] `json:"cost,omitempty"`
}

func toOptional[T any](n nullable.Nullable[T]) (itinerary.Optional[T], error) {
	if !n.IsSpecified() {
		return itinerary.Unspecified[T](), nil
	}
	if n.IsNull() {
		return itinerary.Null[T](), nil
	}
	v, err := n.Get()
	if err != nil {
		return itinerary.Unspecified[T](), err
	}
	return itinerary.Some(v), nil
}

func toPatch(req stopMetaPatchRequest) (itinerary.StopMetaPatch, error) {
	var patch itinerary.StopMetaPatch
	var err error
	if patch.Title, err = toOptional(req.Title); err != nil {
		return patch, err
	}
	if patch.Lat, err = toOptional(req.Lat); err != nil {
		return patch, err
	}
	if patch.Lng, err = toOptional(req.Lng); err != nil {
		return patch, err
	}
	if patch.Note, err = toOptional(req.Note); err != nil {
		return patch, err
	}
	if patch.Cost, err = toOptional(req.Cost); err != nil {
		return patch, err
	}
	return patch, nil
}

// PATCH /v1/sessions/{sessionID}/stops/{stopID}
func (h *Handlers) patchStopMeta(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req stopMetaPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	patch, err := toPatch(req)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if patch.Title.IsNull() || patch.Lat.IsNull() || patch.Lng.IsNull() {
		writeBadRequest(w, "title, lat, and lng cannot be null")
		return
	}

	s.Engine.SetStopMeta(domain.StopID(chi.URLParam(r, "stopID")), patch)
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

type optimizeRequest struct {
	TravelMode string `json:"travelMode"`
}

// POST /v1/sessions/{sessionID}/optimize
func (h *Handlers) optimizeDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	mode := optimizer.TravelMode(req.TravelMode)
	switch mode {
	case "":
		mode = optimizer.TravelModeDriving
	case optimizer.TravelModeDriving, optimizer.TravelModeWalking, optimizer.TravelModeTransit, optimizer.TravelModeBicycling:
	default:
		writeBadRequest(w, "unknown travel mode")
		return
	}

	applied, err := s.Optimize.OptimizeActiveDay(r.Context(), mode)
	if err != nil {
		h.log.Warn().Err(err).Msg("optimize request did not apply")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"trip":    toTripDTO(s.Engine.Trip()),
	})
}

// POST /v1/sessions/{sessionID}/days
func (h *Handlers) addDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	dayID := s.Engine.AddDay()
	writeJSON(w, http.StatusCreated, map[string]any{
		"dayId": string(dayID),
		"trip":  toTripDTO(s.Engine.Trip()),
	})
}

// DELETE /v1/sessions/{sessionID}/days/{dayID}
func (h *Handlers) removeDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Engine.RemoveDay(domain.DayID(chi.URLParam(r, "dayID")))
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

type activeDayRequest struct {
	Index int `json:"index"`
}

// PUT /v1/sessions/{sessionID}/active-day
func (h *Handlers) setActiveDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req activeDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	s.Engine.SetActiveDay(req.Index)
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

// POST /v1/sessions/{sessionID}/active-day/reload
func (h *Handlers) reloadActiveDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Engine.ReloadActiveDay(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("reload active day failed")
		writeError(w, http.StatusBadGateway, "could not reload day from storage")
		return
	}
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

// GET /v1/sessions/{sessionID}/notifications
func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": toNotificationDTOs(s.Notifications.List()),
	})
}

// DELETE /v1/sessions/{sessionID}/notifications/{notificationID}
func (h *Handlers) dismissNotification(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Notifications.Dismiss(domain.NotificationID(chi.URLParam(r, "notificationID")))
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/sessions/{sessionID}/notifications/{notificationID}/retry
//
// Fires the retry action bound to an error notification and dismisses it.
// The retry is a fresh mutation attempt; its outcome arrives as a new
// notification.
func (h *Handlers) retryNotification(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id := domain.NotificationID(chi.URLParam(r, "notificationID"))
	n, found := s.Notifications.Get(id)
	if !found {
		writeNotFound(w, "notification not found")
		return
	}
	if n.Action == nil {
		writeBadRequest(w, "notification has no retry action")
		return
	}
	s.Notifications.Dismiss(id)
	n.Action.Run()
	writeJSON(w, http.StatusOK, toTripDTO(s.Engine.Trip()))
}

// GET /v1/sessions/{sessionID}/operations
func (h *Handlers) listOperations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"operations": toOperationDTOs(s.Engine.PendingOperations()),
	})
}
