package webtoolkit

import (
	"context"
	"time"

	"github.com/kimasplund/mcp-web-interaction-toolkit/internal/backoff"
)

// RetryConfig controls the retry loop. The delay before attempt n (zero
// based) is min(InitialBackoff * BackoffFactor^n, MaxBackoff) plus uniform
// jitter of up to Jitter times that delay.
type RetryConfig struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// InitialBackoff is the delay after the first failure.
	InitialBackoff time.Duration

	// BackoffFactor is the exponential growth factor between attempts.
	BackoffFactor float64

	// MaxBackoff caps the delay per step.
	MaxBackoff time.Duration

	// Jitter is the maximum random fraction added to each delay. Jitter
	// spreads out concurrent retriers hitting the same failing endpoint.
	Jitter float64

	// Strategy overrides the delay computation. Nil means exponential
	// backoff with jitter.
	Strategy backoff.Strategy
}

// DefaultRetryConfig mirrors the fetch tool defaults: three attempts,
// delays of 1s, 2s, 4s... capped at a minute, with 10% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		BackoffFactor:  2.0,
		MaxBackoff:     60 * time.Second,
		Jitter:         0.1,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 60 * time.Second
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	if c.Strategy == nil {
		c.Strategy = backoff.ExponentialJitter{}
	}
	return c
}

// Retry invokes op up to cfg.MaxAttempts times, sleeping between failed
// attempts. A first-attempt success returns immediately with no sleep. On
// exhaustion the final attempt's error is returned unchanged; retries are
// never silently swallowed. Context cancellation aborts the backoff sleep
// and returns ctx.Err().
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.Strategy.Delay(attempt, cfg.InitialBackoff, cfg.MaxBackoff, cfg.BackoffFactor, cfg.Jitter)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
