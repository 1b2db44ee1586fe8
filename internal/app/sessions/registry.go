package sessions

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripdraft/itinerary-api/internal/app/itinerary"
	"github.com/tripdraft/itinerary-api/internal/app/notify"
	"github.com/tripdraft/itinerary-api/internal/app/optimize"
	"github.com/tripdraft/itinerary-api/internal/ports/out/clock"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Session bundles the per-planning-session engine with its notification queue
// and optimization service. One session corresponds to one open planning view.
type Session struct {
	ID            string
	Engine        *itinerary.Engine
	Notifications *notify.Queue
	Optimize      *optimize.Service
}

// Registry creates and resolves planning sessions. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store stopstore.Store
	opt   optimizer.Optimizer
	clk   clock.Clock
	log   zerolog.Logger
}

func NewRegistry(store stopstore.Store, opt optimizer.Optimizer, clk clock.Clock, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		opt:      opt,
		clk:      clk,
		log:      log,
	}
}

// Create starts a new planning session with a fresh single-day trip.
func (r *Registry) Create() *Session {
	queue := notify.NewQueue()
	engine := itinerary.NewEngine(r.store, queue, r.clk, r.log)

	s := &Session{
		ID:            uuid.NewString(),
		Engine:        engine,
		Notifications: queue,
		Optimize:      optimize.NewService(engine, r.opt, queue, r.log),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get resolves a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close discards a session. Unknown ids are ignored.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
