package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Storage is the short-lived key/value storage a page sees for its browsing
// session. Values are text, as in a browser's sessionStorage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// Memory is a thread-safe in-memory Storage.
type Memory struct {
	mu        sync.Mutex
	values    map[string]string
	touchedAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		values:    make(map[string]string),
		touchedAt: time.Now(),
	}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touchedAt = time.Now()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.touchedAt = time.Now()
}

func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	m.touchedAt = time.Now()
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

func (m *Memory) idleSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touchedAt
}

// Registry hands out one Memory per client session and evicts sessions that
// have been idle longer than the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Memory
	ttl      time.Duration
	log      *slog.Logger
}

func NewRegistry(ttl time.Duration, log *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Memory),
		ttl:      ttl,
		log:      log,
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// For returns the storage for id, creating it when absent. An empty or
// malformed id gets a new session; the id actually used is returned.
func (r *Registry) For(id string) (string, *Memory) {
	if _, err := uuid.Parse(id); err != nil {
		id = NewID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sessions[id]
	if !ok {
		m = NewMemory()
		r.sessions[id] = m
	}
	return id, m
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup removes expired sessions.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, m := range r.sessions {
		if now.Sub(m.idleSince()) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run evicts expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 {
				r.log.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}
