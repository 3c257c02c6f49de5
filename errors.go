package webtoolkit

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCircuitOpen is returned when a key's circuit breaker is open.
	ErrCircuitOpen = errors.New("webtoolkit: circuit open")

	// ErrRateLimited is returned when non-blocking admission is denied.
	ErrRateLimited = errors.New("webtoolkit: rate limited")

	// ErrCacheMiss is returned when a cache lookup fails.
	ErrCacheMiss = errors.New("webtoolkit: cache miss")

	// ErrSessionClosed is returned when a named session was torn down while
	// a request was using it.
	ErrSessionClosed = errors.New("webtoolkit: session closed")
)

// Error type constants used in ToolkitError.Type.
const (
	ErrorTypeRateLimit   = "RateLimit"
	ErrorTypeCircuitOpen = "CircuitOpen"
	ErrorTypeNetwork     = "Network"
	ErrorTypeServer      = "Server"
	ErrorTypeTimeout     = "Timeout"
	ErrorTypeValidation  = "Validation"
)

// ToolkitError is the structured error surfaced by the fetch client. It
// carries enough request context to diagnose failures without re-running
// them.
type ToolkitError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	Key        string
	StatusCode int
	Attempt    int
	MaxRetries int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements the error interface.
func (e *ToolkitError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ToolkitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ToolkitError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ToolkitError); ok {
		return e.Type == targetErr.Type
	}
	switch target {
	case ErrCircuitOpen:
		return e.Type == ErrorTypeCircuitOpen
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	}
	return false
}

// IsTransient reports whether an error represents a failure that might
// succeed on retry: network errors, timeouts, 5xx responses, and rate
// limiting. Validation errors and other 4xx conditions are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited) {
		return true
	}

	var te *ToolkitError
	if errors.As(err, &te) {
		switch te.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServer, ErrorTypeRateLimit, ErrorTypeCircuitOpen:
			return true
		default:
			return te.StatusCode == 429
		}
	}

	return false
}
