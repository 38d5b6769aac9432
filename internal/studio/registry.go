package studio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"renderstudio/internal/infra"
)

const (
	DefaultIdleTimeout     = 2 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
	DefaultMaxSessions     = 256
)

// RegistryOptions configures session lifetime.
type RegistryOptions struct {
	Session         Options
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
}

type entry struct {
	session      *Session
	lastActivity time.Time
}

// Registry maps browser session ids to sessions. Idle sessions are dropped by
// a background sweep and the least recently used one is evicted at capacity.
type Registry struct {
	opts   RegistryOptions
	logger *infra.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry starts the cleanup loop; call Shutdown to stop it.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	logger := opts.Session.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	now := opts.Session.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		opts:     opts,
		logger:   logger,
		now:      now,
		sessions: make(map[string]*entry),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go r.cleanupLoop(ctx)
	return r
}

// NewID returns a fresh session id.
func (r *Registry) NewID() string {
	return uuid.NewString()
}

// Get returns an existing session and refreshes its activity time.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastActivity = r.now()
	return e.session, true
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id string) *Session {
	if s, ok := r.Get(id); ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if e, ok := r.sessions[id]; ok {
		e.lastActivity = now
		return e.session
	}
	if len(r.sessions) >= r.opts.MaxSessions {
		r.evictLRU()
	}
	s := NewSession(id, r.opts.Session)
	r.sessions[id] = &entry{session: s, lastActivity: now}
	r.logger.Debug().Str("session_id", id).Int("total", len(r.sessions)).Msg("session created")
	return s
}

// Delete discards a session. Unknown ids are ignored.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown stops the cleanup loop and waits for it.
func (r *Registry) Shutdown() {
	r.cancel()
	<-r.done
}

func (r *Registry) cleanupLoop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.opts.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.removeInactive()
		}
	}
}

func (r *Registry) removeInactive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastActivity) > r.opts.IdleTimeout {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info().Int("removed", removed).Int("total", len(r.sessions)).Msg("cleaned up inactive sessions")
	}
	return removed
}

// evictLRU must be called with r.mu held for writing.
func (r *Registry) evictLRU() {
	var oldestID string
	var oldest time.Time
	for id, e := range r.sessions {
		if oldestID == "" || e.lastActivity.Before(oldest) {
			oldestID = id
			oldest = e.lastActivity
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
		r.logger.Info().Str("session_id", oldestID).Dur("idle", r.now().Sub(oldest)).Msg("evicted least recently used session")
	}
}
