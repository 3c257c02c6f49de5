package webtoolkit

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes Prometheus metrics for the fetch lifecycle and
// every reliability layer. Safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal      *prometheus.CounterVec
	rateLimitedTotal  *prometheus.CounterVec
	circuitOpenTotal  *prometheus.CounterVec
	circuitBreakerHot *prometheus.GaugeVec

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheSize      prometheus.Gauge
	cacheEvictions prometheus.Counter

	dedupHits *prometheus.CounterVec

	sessionsActive prometheus.Gauge

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector registers collectors on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry registers collectors on the supplied
// registerer. Tests use a private registry to avoid duplicate registration.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_requests_total",
				Help: "Total number of fetches performed",
			},
			[]string{"method", "host", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webtoolkit_request_duration_seconds",
				Help:    "Duration of fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "host"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "webtoolkit_requests_in_flight",
				Help: "Number of fetches currently in flight",
			},
			[]string{"method", "host"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"host"},
		),
		rateLimitedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_rate_limited_total",
				Help: "Total number of admissions deferred by the rate limiter",
			},
			[]string{"host"},
		),
		circuitOpenTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_circuit_open_total",
				Help: "Total number of fetches rejected by an open circuit",
			},
			[]string{"host"},
		),
		circuitBreakerHot: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "webtoolkit_circuit_breaker_failures",
				Help: "Current consecutive failure count per host",
			},
			[]string{"host"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"host"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"host"},
		),
		cacheSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "webtoolkit_cache_size",
				Help: "Current number of entries in the response cache",
			},
		),
		cacheEvictions: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "webtoolkit_cache_evictions_total",
				Help: "Total number of entries removed by cache cleanup",
			},
		),
		dedupHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_deduplication_hits_total",
				Help: "Total number of fetches merged into an identical in-flight fetch",
			},
			[]string{"host"},
		),
		sessionsActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "webtoolkit_sessions_active",
				Help: "Current number of live named sessions",
			},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtoolkit_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type", "host"},
		),
	}
}

// RecordRequest records a completed fetch.
func (m *MetricsCollector) RecordRequest(method, host string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, host, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, host).Observe(duration.Seconds())
}

// RecordRequestStart marks a fetch in flight.
func (m *MetricsCollector) RecordRequestStart(method, host string) {
	m.requestsInFlight.WithLabelValues(method, host).Inc()
}

// RecordRequestEnd marks a fetch no longer in flight.
func (m *MetricsCollector) RecordRequestEnd(method, host string) {
	m.requestsInFlight.WithLabelValues(method, host).Dec()
}

// RecordRetry records a retry attempt against host.
func (m *MetricsCollector) RecordRetry(host string) {
	m.retriesTotal.WithLabelValues(host).Inc()
}

// RecordRateLimited records an admission deferral for host.
func (m *MetricsCollector) RecordRateLimited(host string) {
	m.rateLimitedTotal.WithLabelValues(host).Inc()
}

// RecordCircuitOpen records a fast failure due to an open circuit.
func (m *MetricsCollector) RecordCircuitOpen(host string) {
	m.circuitOpenTotal.WithLabelValues(host).Inc()
}

// RecordCircuitFailures publishes the current failure count for host.
func (m *MetricsCollector) RecordCircuitFailures(host string, failures int) {
	m.circuitBreakerHot.WithLabelValues(host).Set(float64(failures))
}

// RecordCacheHit records a cache hit for host.
func (m *MetricsCollector) RecordCacheHit(host string) {
	m.cacheHits.WithLabelValues(host).Inc()
}

// RecordCacheMiss records a cache miss for host.
func (m *MetricsCollector) RecordCacheMiss(host string) {
	m.cacheMisses.WithLabelValues(host).Inc()
}

// RecordCacheSize publishes the current cache entry count.
func (m *MetricsCollector) RecordCacheSize(size int) {
	m.cacheSize.Set(float64(size))
}

// RecordCacheEviction counts entries removed by cleanup.
func (m *MetricsCollector) RecordCacheEviction(n int) {
	m.cacheEvictions.Add(float64(n))
}

// RecordDeduplicationHit records a fetch served by an in-flight duplicate.
func (m *MetricsCollector) RecordDeduplicationHit(host string) {
	m.dedupHits.WithLabelValues(host).Inc()
}

// RecordSessionsActive publishes the current named session count.
func (m *MetricsCollector) RecordSessionsActive(n int) {
	m.sessionsActive.Set(float64(n))
}

// RecordError counts an error by type.
func (m *MetricsCollector) RecordError(errorType, host string) {
	m.errorsTotal.WithLabelValues(errorType, host).Inc()
}
