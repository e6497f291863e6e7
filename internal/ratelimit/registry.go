package ratelimit

import (
	"sync"
	"time"
)

// Registry owns one Limiter per session. Sessions whose attempt log is
// empty are dropped by Sweep.
type Registry struct {
	mu          sync.Mutex
	limiters    map[string]*Limiter
	window      time.Duration
	maxAttempts int
}

// NewRegistry creates an empty registry.
func NewRegistry(window time.Duration, maxAttempts int) *Registry {
	return &Registry{
		limiters:    make(map[string]*Limiter),
		window:      window,
		maxAttempts: maxAttempts,
	}
}

// Check runs an admission check for the session.
func (r *Registry) Check(sessionID string, now time.Time) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[sessionID]
	if !ok {
		return Decision{Allowed: true}
	}
	return l.Check(now)
}

// Record appends an attempt to the session's log.
func (r *Registry) Record(sessionID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[sessionID]
	if !ok {
		l = NewLimiter(r.window, r.maxAttempts)
		r.limiters[sessionID] = l
	}
	l.Record(now)
}

// Sweep drops sessions with no attempt inside the window and returns how
// many sessions remain.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, l := range r.limiters {
		if l.Len(now) == 0 {
			delete(r.limiters, id)
		}
	}
	return len(r.limiters)
}

// Run calls Sweep every interval until done is closed. report, when not
// nil, receives the remaining session count after each sweep.
func (r *Registry) Run(done <-chan struct{}, interval time.Duration, report func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			n := r.Sweep(now)
			if report != nil {
				report(n)
			}
		}
	}
}
