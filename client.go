package webtoolkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/kimasplund/mcp-web-interaction-toolkit/internal/singleflight"
)

// FetchRequest describes one fetch through the reliability layer.
type FetchRequest struct {
	// URL is the absolute http(s) URL to fetch.
	URL string

	// Method defaults to GET.
	Method string

	// Header entries are added to the outgoing request.
	Header http.Header

	// Body is the request body, if any.
	Body []byte

	// SessionID selects a named cookie-bearing session instead of the
	// shared pooled client. Session fetches bypass the cache so
	// authenticated responses are never shared.
	SessionID string

	// DisableCache skips cache lookup and population for this fetch.
	DisableCache bool
}

// FetchResult is the outcome of a successful fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	FromCache  bool
	Duration   time.Duration
}

// Client composes the reliability primitives around a pooled HTTP client:
// cache lookup, circuit-breaker gate, rate-limit admission, then a
// retry-wrapped network call. All shared state is constructor-injected;
// two Clients never share maps. Safe for concurrent use.
type Client struct {
	config         Config
	sessions       *SessionPool
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	cache          Cache
	retry          RetryConfig
	inflight       *singleflight.Group
	metrics        *MetricsCollector
	logger         Logger
	debug          *DebugConfig
	minDelay       time.Duration
	maxDelay       time.Duration

	// lastEvictions tracks the cache eviction count already published to
	// metrics, so each cleanup is counted once.
	lastEvictions atomic.Uint64
}

// New constructs a Client from functional options. Components not
// explicitly provided are built from the (possibly overridden) Config.
func New(options ...Option) *Client {
	c := &Client{
		config: DefaultConfig(),
		debug:  DefaultDebugConfig(),
	}

	for _, option := range options {
		option(c)
	}

	if c.rateLimiter == nil {
		c.rateLimiter = NewRateLimiter(c.config.RateLimitRequests, c.config.RateLimitPeriod)
	}
	if c.circuitBreaker == nil {
		c.circuitBreaker = NewCircuitBreaker(c.config.FailureThreshold, c.config.RecoveryTimeout)
	}
	if c.cache == nil && c.config.CacheEnabled {
		c.cache = NewMemoryCache(c.config.CacheTTL)
	}
	if c.sessions == nil {
		c.sessions = NewSessionPool(c.config)
	}
	c.sessions.logger = c.logger
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryConfig()
		c.retry.MaxAttempts = c.config.MaxRetries
	}
	if c.inflight == nil {
		c.inflight = singleflight.New()
	}

	return c
}

// Config returns the immutable configuration the client was built with.
func (c *Client) Config() Config { return c.config }

// Sessions exposes the session pool for registry operations (close,
// close-all, introspection).
func (c *Client) Sessions() *SessionPool { return c.sessions }

// ClearCache drops every cached response. No-op when caching is disabled.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// CacheEntries returns the current cache entry count.
func (c *Client) CacheEntries() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Close tears down every named session and the shared pooled client.
func (c *Client) Close() {
	c.sessions.CloseAll()
	c.sessions.CloseShared()
}

// Get fetches url with a plain GET through the reliability layer.
func (c *Client) Get(ctx context.Context, rawURL string) (*FetchResult, error) {
	return c.Fetch(ctx, FetchRequest{URL: rawURL})
}

// Fetch runs the full pipeline: cache lookup, circuit-breaker check,
// rate-limit admission (blocking), then a retry-wrapped HTTP call. On
// success the breaker records a success and the cache is populated; on
// retry exhaustion the breaker records a failure and the final error
// propagates unchanged.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &ToolkitError{
			Type:      ErrorTypeValidation,
			Message:   fmt.Sprintf("invalid URL %q", req.URL),
			Cause:     err,
			Method:    method,
			URL:       req.URL,
			Timestamp: time.Now(),
		}
	}
	host := parsed.Host

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	c.debugLog(c.debug.LogRequests, "Starting fetch", "requestID", requestID, "method", method, "url", req.URL, "host", host)

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, host)
		defer c.metrics.RecordRequestEnd(method, host)
	}

	cacheable := c.cache != nil && c.config.CacheEnabled &&
		method == http.MethodGet && req.SessionID == "" && !req.DisableCache

	var cacheKey string
	if cacheable {
		cacheKey = CacheKey(req.URL, map[string]interface{}{"method": method})
		if entry, ok := c.cache.Get(cacheKey); ok {
			c.debugLog(c.debug.LogCache, "Cache hit", "requestID", requestID, "cacheKey", cacheKey)
			if c.metrics != nil {
				c.metrics.RecordCacheHit(host)
				c.metrics.RecordRequest(method, host, entry.StatusCode, time.Since(start))
			}
			return resultFromEntry(req.URL, entry, start), nil
		}
		c.debugLog(c.debug.LogCache, "Cache miss", "requestID", requestID, "cacheKey", cacheKey)
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(host)
		}
	}

	// Concurrent identical cacheable fetches are merged: one owner does
	// the network work, waiters share its result.
	if cacheable {
		val, shared, err := c.inflight.Do(cacheKey, func() (interface{}, error) {
			return c.fetchThrough(ctx, req, method, host, requestID, cacheable, cacheKey)
		})
		if err != nil {
			return nil, err
		}
		result := val.(*FetchResult)
		if shared {
			c.debugLog(c.debug.LogRequests, "Merged into in-flight fetch", "requestID", requestID, "cacheKey", cacheKey)
			if c.metrics != nil {
				c.metrics.RecordDeduplicationHit(host)
			}
		}
		c.recordRequestMetrics(method, host, result, start)
		return result, nil
	}

	result, err := c.fetchThrough(ctx, req, method, host, requestID, false, "")
	if err != nil {
		return nil, err
	}
	c.recordRequestMetrics(method, host, result, start)
	return result, nil
}

// fetchThrough is the post-cache pipeline: breaker gate, rate-limit wait,
// randomized politeness delay, then the retry-wrapped network call. Shared
// maps are only touched under their own locks; the network call itself
// runs outside all of them.
func (c *Client) fetchThrough(ctx context.Context, req FetchRequest, method, host, requestID string, cacheable bool, cacheKey string) (*FetchResult, error) {
	if c.circuitBreaker.IsOpen(host) {
		c.debugLog(c.debug.LogCircuit, "Circuit open, failing fast", "requestID", requestID, "host", host)
		if c.metrics != nil {
			c.metrics.RecordCircuitOpen(host)
			c.metrics.RecordError(ErrorTypeCircuitOpen, host)
		}
		return nil, &ToolkitError{
			Type:       ErrorTypeCircuitOpen,
			Message:    "circuit breaker is open",
			Cause:      ErrCircuitOpen,
			RequestID:  requestID,
			Method:     method,
			URL:        req.URL,
			Key:        host,
			MaxRetries: c.retry.MaxAttempts,
			Timestamp:  time.Now(),
		}
	}

	if !c.rateLimiter.Allow(host) {
		c.debugLog(c.debug.LogRateLimit, "Rate limit exceeded, waiting", "requestID", requestID, "host", host)
		if c.metrics != nil {
			c.metrics.RecordRateLimited(host)
		}
		if err := c.rateLimiter.Wait(ctx, host); err != nil {
			return nil, err
		}
	}

	if err := c.politenessDelay(ctx); err != nil {
		return nil, err
	}

	attempt := 0
	op := func(ctx context.Context) (*FetchResult, error) {
		if attempt > 0 {
			c.debugLog(c.debug.LogRetries, "Retry attempt", "requestID", requestID, "attempt", attempt, "maxAttempts", c.retry.MaxAttempts, "host", host)
			if c.metrics != nil {
				c.metrics.RecordRetry(host)
			}
		}
		attempt++
		return c.doRequest(ctx, req, method, requestID)
	}

	result, err := Retry(ctx, c.retry, op)

	if err != nil {
		c.circuitBreaker.RecordFailure(host)
		if c.metrics != nil {
			c.metrics.RecordCircuitFailures(host, c.circuitBreaker.Failures(host))
			c.metrics.RecordError(errorTypeOf(err), host)
		}
		c.debugLog(c.debug.LogCircuit, "Recorded breaker failure", "requestID", requestID, "host", host, "error", err.Error())
		return nil, err
	}

	c.circuitBreaker.RecordSuccess(host)
	if c.metrics != nil {
		c.metrics.RecordCircuitFailures(host, 0)
	}

	if cacheable && result.StatusCode < 400 {
		c.cache.Set(cacheKey, &CacheEntry{
			Body:       result.Body,
			StatusCode: result.StatusCode,
			Header:     result.Header.Clone(),
		})
		c.debugLog(c.debug.LogCache, "Response cached", "requestID", requestID, "cacheKey", cacheKey)
		if c.metrics != nil {
			c.metrics.RecordCacheSize(c.cache.Len())
			if mc, ok := c.cache.(*MemoryCache); ok {
				if ev := mc.Evictions(); ev > c.lastEvictions.Load() {
					if prev := c.lastEvictions.Swap(ev); ev > prev {
						c.metrics.RecordCacheEviction(int(ev - prev))
					}
				}
			}
		}
	}

	return result, nil
}

// doRequest performs a single HTTP attempt via the shared pooled client or
// the request's named session.
func (c *Client) doRequest(ctx context.Context, req FetchRequest, method, requestID string) (*FetchResult, error) {
	var httpClient *http.Client
	if req.SessionID != "" {
		var err error
		httpClient, err = c.sessions.GetOrCreate(req.SessionID)
		if err != nil {
			return nil, err
		}
		if c.metrics != nil {
			c.metrics.RecordSessionsActive(c.sessions.ActiveSessions())
		}
		c.debugLog(c.debug.LogSessions, "Using named session", "requestID", requestID, "sessionID", req.SessionID)
	} else {
		httpClient = c.sessions.Shared()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &ToolkitError{
			Type:      ErrorTypeValidation,
			Message:   "failed to build request",
			Cause:     err,
			RequestID: requestID,
			Method:    method,
			URL:       req.URL,
			Timestamp: time.Now(),
		}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &ToolkitError{
			Type:      ErrorTypeNetwork,
			Message:   "request failed",
			Cause:     err,
			RequestID: requestID,
			Method:    method,
			URL:       req.URL,
			Timestamp: time.Now(),
			Duration:  time.Since(start),
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCachedBodyBytes))
	if err != nil {
		return nil, &ToolkitError{
			Type:       ErrorTypeNetwork,
			Message:    "failed to read response body",
			Cause:      err,
			RequestID:  requestID,
			Method:     method,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
		}
	}

	if resp.StatusCode >= 500 {
		return nil, &ToolkitError{
			Type:       ErrorTypeServer,
			Message:    fmt.Sprintf("server returned %s", resp.Status),
			RequestID:  requestID,
			Method:     method,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
		}
	}

	return &FetchResult{
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
		Duration:   time.Since(start),
	}, nil
}

// politenessDelay sleeps a random duration within the configured bounds
// before hitting the network, mimicking a human pause between page loads.
func (c *Client) politenessDelay(ctx context.Context) error {
	if c.maxDelay <= 0 {
		return nil
	}

	delay := c.minDelay
	if c.maxDelay > c.minDelay {
		delay += time.Duration(rand.Int63n(int64(c.maxDelay - c.minDelay)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) recordRequestMetrics(method, host string, result *FetchResult, start time.Time) {
	if c.metrics == nil || result == nil {
		return
	}
	c.metrics.RecordRequest(method, host, result.StatusCode, time.Since(start))
}

func (c *Client) debugLog(enabled bool, msg string, keysAndValues ...interface{}) {
	if c.debug == nil || !c.debug.Enabled || !enabled || c.logger == nil {
		return
	}
	c.logger.Debug(msg, keysAndValues...)
}

func resultFromEntry(url string, entry *CacheEntry, start time.Time) *FetchResult {
	return &FetchResult{
		URL:        url,
		StatusCode: entry.StatusCode,
		Header:     entry.Header.Clone(),
		Body:       entry.Body,
		FromCache:  true,
		Duration:   time.Since(start),
	}
}

func errorTypeOf(err error) string {
	if te, ok := err.(*ToolkitError); ok {
		return te.Type
	}
	if err == context.DeadlineExceeded {
		return ErrorTypeTimeout
	}
	return ErrorTypeNetwork
}

// HealthStatus is the operational snapshot returned by Health.
type HealthStatus struct {
	Config           Config `json:"config"`
	SharedClientOpen bool   `json:"shared_client_open"`
	CacheEntries     int    `json:"cache_entries"`
	ActiveSessions   int    `json:"active_sessions"`
	RateLimiterKeys  int    `json:"rate_limiter_keys"`
	Version          string `json:"version"`
}

// Health reports current configuration and pool state. Operational
// visibility only; nothing here affects correctness.
func (c *Client) Health() HealthStatus {
	return HealthStatus{
		Config:           c.config,
		SharedClientOpen: c.sessions.IsOpen(),
		CacheEntries:     c.CacheEntries(),
		ActiveSessions:   c.sessions.ActiveSessions(),
		RateLimiterKeys:  c.rateLimiter.Keys(),
		Version:          Version,
	}
}
