package webtoolkit

import (
	"context"
	"sync"
	"time"
)

const (
	// sweepInterval throttles the full-map cleanup that bounds memory
	// across many distinct keys.
	sweepInterval = 5 * time.Minute

	// defaultPollInterval is the delay between admission attempts in Wait.
	defaultPollInterval = time.Second
)

// RateLimiter admits requests per key (typically per domain) using a
// sliding window: at most maxRequests admissions within the trailing
// period. It is safe for concurrent use; the admission check-and-record is
// atomic under a single mutex and never performs I/O while holding it.
type RateLimiter struct {
	mu           sync.Mutex
	maxRequests  int
	period       time.Duration
	windows      map[string][]time.Time
	lastSweep    time.Time
	pollInterval time.Duration
}

// NewRateLimiter creates a sliding-window rate limiter. maxRequests and
// period are fixed for the lifetime of the limiter.
func NewRateLimiter(maxRequests int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests:  maxRequests,
		period:       period,
		windows:      make(map[string][]time.Time),
		lastSweep:    time.Now(),
		pollInterval: defaultPollInterval,
	}
}

// Allow reports whether a request for key may proceed now. On admission the
// request is recorded in the key's window; on denial nothing is recorded.
// A key with no prior requests is always admitted.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.maybeSweepLocked(now)

	window := rl.pruneLocked(key, now)
	if len(window) >= rl.maxRequests {
		rl.windows[key] = window
		return false
	}

	rl.windows[key] = append(window, now)
	return true
}

// Wait blocks until a request for key is admitted, polling once per second.
// Sustained overload means sustained blocking: that backpressure is the
// point. The context is the escape hatch; its cancellation or deadline
// aborts the wait with ctx.Err().
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	for {
		if rl.Allow(key) {
			return nil
		}

		timer := time.NewTimer(rl.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Keys returns the number of keys currently tracked. Used for introspection
// and tests.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// pruneLocked drops timestamps older than the window for a single key and
// returns the surviving slice. Callers must hold rl.mu.
func (rl *RateLimiter) pruneLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.period)
	window := rl.windows[key]

	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// maybeSweepLocked prunes every key's expired timestamps and deletes empty
// keys, at most once per sweepInterval. Without this, a long-running
// process that touches many distinct domains would grow the map without
// bound. Callers must hold rl.mu.
func (rl *RateLimiter) maybeSweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now

	cutoff := now.Add(-rl.period)
	for key, window := range rl.windows {
		kept := window[:0]
		for _, ts := range window {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(rl.windows, key)
		} else {
			rl.windows[key] = kept
		}
	}
}
