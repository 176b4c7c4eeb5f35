package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brianmaseno/medtech/internal/models"
)

// MemoryStore keeps sessions in an in-process map. It is the default backend
// for tests and single-instance deployments; eviction relies on the periodic
// housekeeping sweep rather than per-read expiry checks.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

// Get returns the stored session for key, or a fresh initial session.
func (s *MemoryStore) Get(ctx context.Context, key string) (models.Session, error) {
	if key == "" {
		return models.Session{}, models.ErrEmptySessionKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[key]; ok {
		slog.Debug("MemoryStore Get found", "key", key, "state", sess.State)
		return sess, nil
	}
	slog.Debug("MemoryStore Get miss, returning initial session", "key", key)
	return models.NewSession(key), nil
}

// Put overwrites the stored session with a fresh timestamp.
func (s *MemoryStore) Put(ctx context.Context, sess models.Session) error {
	if sess.SessionKey == "" {
		return models.ErrEmptySessionKey
	}
	if !sess.State.Valid() {
		return models.ErrInvalidState
	}
	sess.LastTouchedAt = s.now()
	s.mu.Lock()
	s.sessions[sess.SessionKey] = sess
	s.mu.Unlock()
	slog.Debug("MemoryStore Put succeeded", "key", sess.SessionKey, "state", sess.State)
	return nil
}

// Remove deletes the session for key; unknown keys are a no-op.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	slog.Debug("MemoryStore Remove succeeded", "key", key)
	return nil
}

// EvictOlderThan removes sessions idle for longer than age. Mid-turn sessions
// are safe: a session being mutated was just re-stamped and is never stale.
func (s *MemoryStore) EvictOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, sess := range s.sessions {
		if sess.LastTouchedAt.Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("MemoryStore evicted idle sessions", "count", removed, "age", age)
	}
	return removed, nil
}

// Len returns the number of stored sessions (for tests).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }
