package webtoolkit

import (
	"fmt"
	"time"
)

// Config holds every tunable of the reliability layer. It is constructed
// once at startup (from defaults, flags or environment) and passed to New;
// components never read configuration ambiently.
type Config struct {
	// VerifySSL controls TLS certificate verification on outbound requests.
	VerifySSL bool

	// MaxConnections caps the total idle connections kept by the shared
	// pooled client.
	MaxConnections int

	// MaxConnsPerHost caps concurrent connections per host.
	MaxConnsPerHost int

	// CacheEnabled toggles the response cache.
	CacheEnabled bool

	// CacheTTL is the time-to-live applied to cached responses.
	CacheTTL time.Duration

	// MaxRetries is the number of attempts per fetch, including the first.
	MaxRetries int

	// Timeout is the per-request timeout applied to every HTTP client.
	Timeout time.Duration

	// RateLimitRequests is the number of admissions allowed per key within
	// RateLimitPeriod.
	RateLimitRequests int

	// RateLimitPeriod is the trailing rate-limit window.
	RateLimitPeriod time.Duration

	// FailureThreshold is the consecutive failure count that opens a
	// circuit for a key.
	FailureThreshold int

	// RecoveryTimeout is how long an open circuit rejects attempts before
	// it lazily resets.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		VerifySSL:         true,
		MaxConnections:    100,
		MaxConnsPerHost:   10,
		CacheEnabled:      true,
		CacheTTL:          5 * time.Minute,
		MaxRetries:        3,
		Timeout:           30 * time.Second,
		RateLimitRequests: 60,
		RateLimitPeriod:   60 * time.Second,
		FailureThreshold:  5,
		RecoveryTimeout:   60 * time.Second,
	}
}

// Validate reports the first invalid field, or nil.
func (c Config) Validate() error {
	var problems []string

	if c.MaxConnections <= 0 {
		problems = append(problems, "MaxConnections must be positive")
	}
	if c.MaxConnsPerHost <= 0 {
		problems = append(problems, "MaxConnsPerHost must be positive")
	}
	if c.MaxConnsPerHost > c.MaxConnections {
		problems = append(problems, "MaxConnsPerHost must not exceed MaxConnections")
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, "CacheTTL must be positive")
	}
	if c.MaxRetries <= 0 {
		problems = append(problems, "MaxRetries must be positive")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "Timeout must be positive")
	}
	if c.RateLimitRequests <= 0 {
		problems = append(problems, "RateLimitRequests must be positive")
	}
	if c.RateLimitPeriod <= 0 {
		problems = append(problems, "RateLimitPeriod must be positive")
	}
	if c.FailureThreshold <= 0 {
		problems = append(problems, "FailureThreshold must be positive")
	}
	if c.RecoveryTimeout <= 0 {
		problems = append(problems, "RecoveryTimeout must be positive")
	}

	if len(problems) > 0 {
		return &ToolkitError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}

	return nil
}
