package games

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/comic-crush/internal/engine"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = time.Hour

// Factory builds the engine for a new game id.
type Factory func(id uuid.UUID) *engine.Engine

// Registry holds the live sessions of this process. Nothing is persisted: a
// session that expires or is deleted is gone.
type Registry struct {
	mu      sync.Mutex
	games   map[uuid.UUID]*entry
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

type entry struct {
	engine   *engine.Engine
	lastSeen time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		games:   make(map[uuid.UUID]*entry),
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Create starts a new session and returns its id and engine.
func (r *Registry) Create() (uuid.UUID, *engine.Engine) {
	id := uuid.New()
	e := r.factory(id)

	r.mu.Lock()
	r.games[id] = &entry{engine: e, lastSeen: r.now()}
	r.mu.Unlock()

	r.logger.Debug("Session created", "game_id", id.String())
	return id, e
}

// Get returns the session for id and marks it as active.
func (r *Registry) Get(id uuid.UUID) (*engine.Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.games[id]
	if !ok {
		return nil, false
	}
	ent.lastSeen = r.now()
	return ent.engine, true
}

// Delete ends the session for id. It reports whether the session existed.
func (r *Registry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	ent, ok := r.games[id]
	delete(r.games, id)
	r.mu.Unlock()

	if ok {
		ent.engine.Close()
		r.logger.Debug("Session deleted", "game_id", id.String())
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*engine.Engine
	for id, ent := range r.games {
		if ent.lastSeen.Before(cutoff) {
			expired = append(expired, ent.engine)
			delete(r.games, id)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		e.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("Expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.games
	r.games = make(map[uuid.UUID]*entry)
	r.mu.Unlock()

	for _, ent := range all {
		ent.engine.Close()
	}
}
