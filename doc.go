// Package webtoolkit provides the reliability core used by the web
// interaction MCP server: composable primitives that make repeated
// scraping-style HTTP fetches against third-party sites well behaved.
//
//   - Per-key (per-domain) sliding-window rate limiting with blocking admission
//   - Per-key circuit breaker with lazy recovery
//   - Bounded in-memory TTL response cache with oldest-first eviction
//   - Retry with exponential backoff + jitter
//   - Session pool: one shared pooled client plus named cookie-bearing sessions
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Explicit, constructor-injected state: no package-level singletons
//   - Safe concurrent use of a single *Client instance
//   - No lock is ever held across network I/O
//   - Small surface area: functional options configure everything
//
// Typical usage:
//
//	client := webtoolkit.New(
//	    webtoolkit.WithConfig(webtoolkit.DefaultConfig()),
//	    webtoolkit.WithMetrics(),
//	)
//	defer client.Close()
//	result, err := client.Fetch(ctx, webtoolkit.FetchRequest{URL: "https://example.com"})
//
// The library avoids opinionated logging: provide a Logger (e.g. via
// WithSimpleLogger or WithZapLogger) and enable debug flags selectively for
// insight without noise.
package webtoolkit
