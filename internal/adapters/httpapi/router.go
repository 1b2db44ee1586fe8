package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: handlers decode/encode JSON and
// delegate to the session registry and its engines.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoint used for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", h.closeSession)
			r.Get("/trip", h.getTrip)

			r.Post("/days", h.addDay)
			r.Delete("/days/{dayID}", h.removeDay)
			r.Put("/active-day", h.setActiveDay)
			r.Post("/active-day/reload", h.reloadActiveDay)

			r.Post("/stops", h.addStop)
			r.Delete("/stops/{stopID}", h.removeStop)
			r.Post("/stops/reorder", h.reorderStops)
			r.Patch("/stops/{stopID}", h.patchStopMeta)

			r.Post("/optimize", h.optimizeDay)

			r.Get("/notifications", h.listNotifications)
			r.Delete("/notifications/{notificationID}", h.dismissNotification)
			r.Post("/notifications/{notificationID}/retry", h.retryNotification)

			r.Get("/operations", h.listOperations)
		})
	})

	return r
}
