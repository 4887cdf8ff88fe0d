// Package session keeps the live editing sessions of a server, one Graph
// Session Store per browser tab.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psidex/topoedit/internal/topology"
)

var ErrSessionNotFound = errors.New("session: not found")

// Session is one editing session.
type Session struct {
	ID      string
	Store   *topology.Store
	Created time.Time

	mu       *sync.Mutex
	lastSeen time.Time
	done     chan struct{}
}

// LastSeen is the last time the session was looked up.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Done is closed when the session is deleted or reaped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Hook is called with every session the registry creates, before it is
// returned, so the caller can attach listeners.
type Hook func(*Session)

// Registry is a thread-safe map of session ID to Session.
type Registry struct {
	mu       *sync.RWMutex
	logger   *slog.Logger
	sessions map[string]*Session
	now      func() time.Time
	onCreate []Hook
	onDelete []Hook
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		mu:       &sync.RWMutex{},
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// OnCreate registers h to run for every new session.
func (r *Registry) OnCreate(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCreate = append(r.onCreate, h)
}

// OnDelete registers h to run for every deleted or reaped session.
func (r *Registry) OnDelete(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDelete = append(r.onDelete, h)
}

// Create starts a new session around a store built with opts.
func (r *Registry) Create(opts ...topology.Option) *Session {
	now := r.now()
	s := &Session{
		ID:       uuid.NewString(),
		Created:  now,
		mu:       &sync.Mutex{},
		lastSeen: now,
		done:     make(chan struct{}),
	}
	logger := r.logger.With("session", s.ID)
	s.Store = topology.NewStore(append([]topology.Option{topology.WithLogger(logger)}, opts...)...)

	r.mu.Lock()
	r.sessions[s.ID] = s
	hooks := append([]Hook(nil), r.onCreate...)
	r.mu.Unlock()

	for _, h := range hooks {
		h(s)
	}

	logger.Info("Session created")
	return s
}

// Get returns the session with the given id and marks it as seen.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Delete ends the session with the given id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	hooks := append([]Hook(nil), r.onDelete...)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	close(s.done)
	for _, h := range hooks {
		h(s)
	}
	r.logger.Info("Session deleted", "session", id)
	return nil
}

// List returns the IDs of all live sessions, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap deletes every session not seen for longer than idle and returns their
// IDs.
func (r *Registry) Reap(idle time.Duration) []string {
	cutoff := r.now().Add(-idle)

	var stale []string
	r.mu.RLock()
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(stale)
	reaped := stale[:0]
	for _, id := range stale {
		// Another goroutine may have deleted it in the meantime.
		if err := r.Delete(id); err == nil {
			reaped = append(reaped, id)
		}
	}
	return reaped
}

// Run reaps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reaped := r.Reap(idle); len(reaped) > 0 {
				r.logger.Info("Reaped idle sessions", "count", len(reaped))
			}
		}
	}
}
