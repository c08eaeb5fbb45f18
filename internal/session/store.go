// Package session keeps per-chat conversation state in memory.
//
// Sessions are not durable: they disappear on restart and expire after a
// period of inactivity. An expired session is indistinguishable from one that
// never existed.
package session

import (
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/xiaot623/catalogbot/internal/domain"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 30 * time.Minute

// Store maps session ids to conversation state.
type Store interface {
	// Get returns the session for id, or a fresh default session when it is
	// absent or expired.
	Get(id string) domain.Session
	// Put replaces the session for id.
	Put(id string, s domain.Session)
	// Delete forgets the session for id.
	Delete(id string)
	// Len returns the number of live sessions.
	Len() int
}

// MemoryStore is a Store backed by a map with an inactivity TTL.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttl      time.Duration
	clock    clock.Clock
}

// NewMemoryStore creates an in-memory store. A zero ttl uses DefaultTTL and a
// nil clock uses the wall clock.
func NewMemoryStore(ttl time.Duration, clk clock.Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		clock:    clk,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(id string) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return domain.NewSession(id)
	}
	if m.expired(s, m.clock.Now()) {
		delete(m.sessions, id)
		return domain.NewSession(id)
	}
	return s
}

// Put implements Store. A zero LastActivity is stamped with the current time.
func (m *MemoryStore) Put(id string, s domain.Session) {
	s.ID = id
	if s.LastActivity.IsZero() {
		s.LastActivity = m.clock.Now()
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
}

// Delete implements Store.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len implements Store. Expired sessions that have not been swept yet are not counted.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	n := 0
	for _, s := range m.sessions {
		if !m.expired(s, now) {
			n++
		}
	}
	return n
}

// EvictExpired removes expired sessions and returns how many were removed.
func (m *MemoryStore) EvictExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) expired(s domain.Session, now time.Time) bool {
	return now.Sub(s.LastActivity) > m.ttl
}
