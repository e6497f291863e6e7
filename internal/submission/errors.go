package submission

import (
	"errors"
	"fmt"

	"github.com/performartech/hinis-website/internal/validation"
)

// Sentinel errors.
var (
	ErrEndpointNotConfigured = errors.New("submission endpoint not configured")
	ErrInFlight              = errors.New("submission already in flight")
)

// RateLimitError is returned when the session exceeded its attempt budget.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: retry after %ds", e.RetryAfterSeconds)
}

// TransportError wraps a local dispatch failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnhandledError carries a value recovered from a panic during a cycle.
type UnhandledError struct {
	Value any
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("unhandled error: %v", e.Value)
}

// Kind classifies a cycle error for clients and metrics.
type Kind string

// Error kinds.
const (
	KindNone          Kind = ""
	KindRateLimited   Kind = "rate_limited"
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindTransport     Kind = "transport"
	KindInFlight      Kind = "in_flight"
	KindUnhandled     Kind = "unhandled"
)

// KindOf returns the kind of err.
func KindOf(err error) Kind {
	var (
		rateErr      *RateLimitError
		validErr     *validation.Error
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &rateErr):
		return KindRateLimited
	case errors.Is(err, ErrEndpointNotConfigured):
		return KindConfiguration
	case errors.As(err, &validErr):
		return KindValidation
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.Is(err, ErrInFlight):
		return KindInFlight
	default:
		return KindUnhandled
	}
}
