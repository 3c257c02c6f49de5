package webtoolkit

import (
	"sync"
	"time"
)

// circuitEntry tracks consecutive failures for one key.
type circuitEntry struct {
	failures    int
	lastFailure time.Time
}

// CircuitBreaker isolates consistently failing keys (domains or endpoints).
// A key's circuit is open once failures reach the threshold and stays open
// until the recovery timeout elapses past the last failure, at which point
// the state resets lazily on the next IsOpen check.
//
// The breaker is an advisory gate: callers check IsOpen before attempting
// an operation and record the outcome afterwards. It never intercepts
// calls itself.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	recoveryTimeout  time.Duration
	entries          map[string]*circuitEntry
}

// NewCircuitBreaker creates a per-key circuit breaker.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 60 * time.Second
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		entries:          make(map[string]*circuitEntry),
	}
}

// IsOpen reports whether attempts against key should fail fast. When the
// recovery timeout has elapsed since the last failure the key resets to a
// clean state and IsOpen reports false.
func (cb *CircuitBreaker) IsOpen(key string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	entry, ok := cb.entries[key]
	if !ok {
		return false
	}

	if !entry.lastFailure.IsZero() && time.Since(entry.lastFailure) > cb.recoveryTimeout {
		delete(cb.entries, key)
		return false
	}

	return entry.failures >= cb.failureThreshold
}

// RecordSuccess resets the failure count for key.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	delete(cb.entries, key)
}

// RecordFailure increments the failure count for key and stamps the
// failure time. Crossing the threshold opens the circuit for subsequent
// IsOpen calls until recovery.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	entry, ok := cb.entries[key]
	if !ok {
		entry = &circuitEntry{}
		cb.entries[key] = entry
	}
	entry.failures++
	entry.lastFailure = time.Now()
}

// Failures returns the current consecutive failure count for key.
func (cb *CircuitBreaker) Failures(key string) int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if entry, ok := cb.entries[key]; ok {
		return entry.failures
	}
	return 0
}
