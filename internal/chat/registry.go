package chat

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 1000
)

type RegistryConfig struct {
	// IdleTTL drops sessions untouched for longer. Zero disables expiry.
	IdleTTL time.Duration
	// MaxSessions caps the registry by evicting the least recently used
	// idle session. Zero disables the cap.
	MaxSessions int
	Now         func() time.Time
}

type registryEntry struct {
	session  *Session
	lastUsed time.Time
}

// Registry keeps the sessions opened through the HTTP surface. Sessions
// with a submission in flight are never evicted.
type Registry struct {
	mu       sync.Mutex
	cfg      RegistryConfig
	sessions map[string]*registryEntry
}

func NewRegistry() *Registry {
	return NewRegistryWithConfig(RegistryConfig{IdleTTL: DefaultSessionIdleTTL, MaxSessions: DefaultMaxSessions})
}

func NewRegistryWithConfig(cfg RegistryConfig) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{cfg: cfg, sessions: map[string]*registryEntry{}}
}

func (r *Registry) Add(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.cfg.Now()
	r.evictExpiredLocked(now)
	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		r.evictOldestIdleLocked()
	}
	r.sessions[session.ID()] = &registryEntry{session: session, lastUsed: now}
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.cfg.Now()
	if r.expired(entry, now) {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	entry.lastUsed = now
	return entry.session, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(entry *registryEntry, now time.Time) bool {
	if r.cfg.IdleTTL <= 0 || entry.session.State() == StateProcessing {
		return false
	}
	return now.Sub(entry.lastUsed) > r.cfg.IdleTTL
}

func (r *Registry) evictExpiredLocked(now time.Time) {
	for id, entry := range r.sessions {
		if r.expired(entry, now) {
			delete(r.sessions, id)
		}
	}
}

func (r *Registry) evictOldestIdleLocked() {
	var oldestID string
	var oldest time.Time
	for id, entry := range r.sessions {
		if entry.session.State() == StateProcessing {
			continue
		}
		if oldestID == "" || entry.lastUsed.Before(oldest) {
			oldestID, oldest = id, entry.lastUsed
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
	}
}
