// Package backoff computes retry delays. Strategies are stateless so a
// single value can serve concurrent retry loops.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before retrying a failed attempt. attempt is
// zero-based: the delay after the first failure uses attempt 0.
type Strategy interface {
	Delay(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitter grows the delay as initial * multiplier^attempt, capped
// at max, then adds uniform jitter of up to jitter*delay on top. Adding the
// jitter after the cap keeps concurrent retriers decorrelated even once
// they all hit the ceiling.
type ExponentialJitter struct{}

// Delay implements Strategy.
func (ExponentialJitter) Delay(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(initial) * pow(multiplier, attempt))
	if delay < 0 || delay > max {
		delay = max
	}

	jitter = clamp(jitter)
	if jitter > 0 {
		delay += time.Duration(float64(delay) * jitter * rand.Float64())
	}
	return delay
}

// DecorrelatedJitter picks a delay uniformly between initial and
// min(max, initial*3^attempt), after the AWS decorrelated jitter scheme.
// It gives smoother tail latencies than pure exponential growth.
type DecorrelatedJitter struct{}

// Delay implements Strategy. The multiplier and jitter parameters are
// ignored; the scheme fixes its own growth factor.
func (DecorrelatedJitter) Delay(attempt int, initial, max time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return initial
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(initial)
	upper := base * pow(3.0, attempt)
	if upper > float64(max) || upper < 0 {
		upper = float64(max)
	}
	if upper < base {
		upper = base
	}

	delay := time.Duration(base + rand.Float64()*(upper-base))
	if delay < 0 || delay > max {
		delay = max
	}
	return delay
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}

func clamp(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}
