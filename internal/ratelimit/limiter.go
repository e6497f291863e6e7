// Package ratelimit implements sliding-window admission control over the
// submission attempts of a session.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults for contact form submissions.
const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxAttempts = 2
)

// Decision is the result of an admission check.
type Decision struct {
	Allowed           bool
	RetryAfterSeconds int
}

// Limiter tracks the attempt timestamps of one session.
type Limiter struct {
	mu          sync.Mutex
	window      time.Duration
	maxAttempts int
	attempts    []time.Time
}

// NewLimiter creates a limiter. Non-positive arguments use the defaults.
func NewLimiter(window time.Duration, maxAttempts int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Limiter{window: window, maxAttempts: maxAttempts}
}

// Check prunes attempts that are a full window old, then denies admission
// when maxAttempts remain. RetryAfterSeconds is the time, rounded up to
// whole seconds, until the oldest remaining attempt leaves the window.
func (l *Limiter) Check(now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	if len(l.attempts) < l.maxAttempts {
		return Decision{Allowed: true}
	}

	oldest := l.attempts[0]
	for _, ts := range l.attempts[1:] {
		if ts.Before(oldest) {
			oldest = ts
		}
	}
	remaining := l.window - now.Sub(oldest)
	return Decision{
		Allowed:           false,
		RetryAfterSeconds: int((remaining + time.Second - 1) / time.Second),
	}
}

// Record appends an attempt. Call it once per dispatched submission.
func (l *Limiter) Record(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, now)
}

// Len prunes and returns the number of attempts inside the window.
func (l *Limiter) Len(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(now)
	return len(l.attempts)
}

// prune keeps attempts with now - ts < window. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	kept := l.attempts[:0]
	for _, ts := range l.attempts {
		if now.Sub(ts) < l.window {
			kept = append(kept, ts)
		}
	}
	clear(l.attempts[len(kept):])
	l.attempts = kept
}
