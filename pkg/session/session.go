// Package session keeps live tech tree engines for the HTTP server.
//
// Each session owns one [techtree.Engine] and the mutex that serializes calls
// into it. Sessions live in memory only and expire after a period without
// use; completion state is never written to disk.
//
// # Usage
//
//	store := session.NewMemoryStore(session.DefaultTTL)
//	sess := store.Create(engine, treeHash)
//
//	err := sess.Do(func(e *techtree.Engine) error {
//	    _, err := e.Toggle("fire")
//	    return err
//	})
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	techerrors "github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// Default durations.
const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often the janitor sweeps expired sessions.
	DefaultCleanupInterval = time.Minute
)

// Session is one play-through of a tree.
type Session struct {
	ID        string    `json:"id"`
	TreeHash  string    `json:"tree_hash"`
	CreatedAt time.Time `json:"created_at"`

	mu     sync.Mutex // guards engine
	engine *techtree.Engine

	expMu     sync.Mutex
	expiresAt time.Time
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *techtree.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// ExpiresAt returns when the session expires unless used again.
func (s *Session) ExpiresAt() time.Time {
	s.expMu.Lock()
	defer s.expMu.Unlock()
	return s.expiresAt
}

func (s *Session) expired(now time.Time) bool {
	s.expMu.Lock()
	defer s.expMu.Unlock()
	return now.After(s.expiresAt)
}

func (s *Session) touch(now time.Time, ttl time.Duration) {
	s.expMu.Lock()
	s.expiresAt = now.Add(ttl)
	s.expMu.Unlock()
}

// MemoryStore holds sessions in a map. Every successful Get extends the
// session's lifetime by the store TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after ttl of
// inactivity. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the idle lifetime of sessions.
func (m *MemoryStore) TTL() time.Duration { return m.ttl }

// Create registers e under a fresh random id.
func (m *MemoryStore) Create(e *techtree.Engine, treeHash string) *Session {
	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		TreeHash:  treeHash,
		CreatedAt: now,
		engine:    e,
		expiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session with the given id. Unknown, malformed and expired
// ids all yield SESSION_NOT_FOUND.
func (m *MemoryStore) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, techerrors.New(techerrors.ErrCodeSessionNotFound, "session %q not found", id)
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	now := m.now()
	if !ok || sess.expired(now) {
		return nil, techerrors.New(techerrors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	sess.touch(now, m.ttl)
	return sess, nil
}

// Delete removes a session. It reports whether the session existed.
func (m *MemoryStore) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Len returns the number of stored sessions, expired ones included until the
// next Cleanup.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls Cleanup every interval until ctx is done. onSweep, if not
// nil, receives the number of sessions removed by each sweep that removed any.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
