// Example usage of the webtoolkit reliability layer outside the MCP
// server: two clients with independent state, a named session, and health
// introspection.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	webtoolkit "github.com/kimasplund/mcp-web-interaction-toolkit"
)

func main() {
	cfg := webtoolkit.DefaultConfig()
	cfg.RateLimitRequests = 10
	cfg.RateLimitPeriod = time.Second

	client := webtoolkit.New(
		webtoolkit.WithConfig(cfg),
		webtoolkit.WithSimpleLogger(),
		webtoolkit.WithHumanDelay(100*time.Millisecond, 500*time.Millisecond),
	)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := client.Get(ctx, "https://httpbin.org/html")
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
	fmt.Printf("fetched %s: %d (%d bytes, cached=%v)\n",
		result.URL, result.StatusCode, len(result.Body), result.FromCache)

	// Second fetch of the same URL is served from cache.
	again, err := client.Get(ctx, "https://httpbin.org/html")
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
	fmt.Printf("again: cached=%v\n", again.FromCache)

	// A named session keeps cookies across fetches.
	if _, err := client.Fetch(ctx, webtoolkit.FetchRequest{
		URL:       "https://httpbin.org/cookies/set?flavor=oatmeal",
		SessionID: "demo",
	}); err != nil {
		log.Fatalf("session fetch failed: %v", err)
	}
	defer client.Sessions().Close("demo")

	health := client.Health()
	fmt.Printf("health: shared_open=%v cache_entries=%d sessions=%d\n",
		health.SharedClientOpen, health.CacheEntries, health.ActiveSessions)
}
