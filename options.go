package webtoolkit

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithConfig replaces the entire configuration. Apply it before options
// that build components, since components derive their defaults from it.
func WithConfig(config Config) Option {
	return func(c *Client) {
		c.config = config
	}
}

// WithRateLimiter injects a rate limiter, overriding the one built from
// Config. Sharing one limiter across clients serializes their admissions.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// WithCircuitBreaker injects a circuit breaker, overriding the one built
// from Config.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) {
		c.circuitBreaker = cb
	}
}

// WithCache injects a cache implementation.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithSessionPool injects a session pool, overriding the one built from
// Config.
func WithSessionPool(pool *SessionPool) Option {
	return func(c *Client) {
		c.sessions = pool
	}
}

// WithRetryConfig overrides the retry loop parameters.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithHumanDelay adds a randomized pause within [min, max] before each
// network call. Zero max disables the pause.
func WithHumanDelay(min, max time.Duration) Option {
	return func(c *Client) {
		c.minDelay = min
		c.maxDelay = max
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithZapLogger adapts a zap logger for debug output.
func WithZapLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = NewZapLogger(logger)
	}
}

// WithDebug enables debug logging with the default category flags.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug flags. Nil is ignored.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		if config != nil {
			c.debug = config
		}
	}
}
