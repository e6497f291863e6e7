// Package session keeps small per-visitor values keyed by the session cookie,
// the server-side counterpart of the browser's sessionStorage.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session has no value under the key.
var ErrNotFound = errors.New("session value not found")

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

// Store is a session-scoped key/value store. Implementations must be safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}
