package session

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	values  map[string][]byte
	touched time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle for longer
// than the TTL are dropped on access and by Run.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty store. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		return nil, ErrNotFound
	}
	v, ok := sess.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	sess.touched = s.now()
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		sess = &memorySession{values: make(map[string][]byte)}
		s.sessions[sessionID] = sess
	}
	sess.values[key] = append([]byte(nil), value...)
	sess.touched = s.now()
	return nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		return nil
	}
	delete(sess.values, key)
	if len(sess.values) == 0 {
		delete(s.sessions, sessionID)
	}
	return nil
}

// live returns the session or nil, dropping it when expired. Callers hold mu.
func (s *MemoryStore) live(sessionID string) *memorySession {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().Sub(sess.touched) > s.ttl {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}

// Sweep drops every expired session and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.touched) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps every interval until done is closed.
func (s *MemoryStore) Run(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
