package webtoolkit

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	c.Set("key", &CacheEntry{Body: []byte("hello"), StatusCode: 200})

	entry, ok := c.Get("key")
	if !ok {
		t.Fatal("Expected hit after Set")
	}
	if string(entry.Body) != "hello" {
		t.Errorf("Expected body %q, got %q", "hello", entry.Body)
	}
	if entry.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", entry.StatusCode)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(50 * time.Millisecond)

	c.Set("key", &CacheEntry{Body: []byte("v")})
	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("Expected stale entry to be absent")
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Expected stale entry purged on access, Len() = %d", got)
	}
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	c.Set("a", &CacheEntry{})
	c.Set("b", &CacheEntry{})

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected a to be deleted")
	}

	c.Clear()
	if got := c.Len(); got != 0 {
		t.Errorf("Expected empty cache after Clear, Len() = %d", got)
	}
}

func TestMemoryCacheEvictsStaleFirst(t *testing.T) {
	c := NewMemoryCache(50 * time.Millisecond)
	c.softCap = 4
	c.hardCap = 3

	c.Set("old-1", &CacheEntry{})
	c.Set("old-2", &CacheEntry{})
	time.Sleep(80 * time.Millisecond)

	c.Set("new-1", &CacheEntry{})
	c.Set("new-2", &CacheEntry{})
	c.Set("new-3", &CacheEntry{})

	if _, ok := c.Get("old-1"); ok {
		t.Error("Expected stale old-1 to be evicted by cleanup")
	}
	if _, ok := c.Get("new-1"); !ok {
		t.Error("Expected fresh new-1 to survive cleanup")
	}
}

func TestMemoryCacheHardCapOldestFirst(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	c.softCap = 10
	c.hardCap = 8

	for i := 0; i < 11; i++ {
		c.Set(fmt.Sprintf("key-%02d", i), &CacheEntry{})
		time.Sleep(time.Millisecond)
	}

	if got := c.Len(); got != 8 {
		t.Errorf("Expected Len() = 8 after trim, got %d", got)
	}
	if _, ok := c.Get("key-00"); ok {
		t.Error("Expected oldest entry to be evicted first")
	}
	if _, ok := c.Get("key-10"); !ok {
		t.Error("Expected newest entry to survive")
	}
	if c.Evictions() == 0 {
		t.Error("Expected evictions to be counted")
	}
}

func TestMemoryCacheBoundUnderChurn(t *testing.T) {
	c := NewMemoryCache(time.Hour)

	for i := 0; i < 1500; i++ {
		c.Set(fmt.Sprintf("key-%04d", i), &CacheEntry{})
	}

	if got := c.Len(); got > cacheSoftCap {
		t.Errorf("Expected entry count to settle at or below %d, got %d", cacheSoftCap, got)
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("https://example.com/page", map[string]interface{}{"method": "GET", "depth": 2})
	b := CacheKey("https://example.com/page", map[string]interface{}{"depth": 2, "method": "GET"})

	if a != b {
		t.Errorf("Expected order-independent keys, got %q vs %q", a, b)
	}
}

func TestCacheKeyDistinguishesOptions(t *testing.T) {
	a := CacheKey("https://example.com", map[string]interface{}{"method": "GET"})
	b := CacheKey("https://example.com", map[string]interface{}{"method": "HEAD"})

	if a == b {
		t.Error("Expected different options to produce different keys")
	}
}

func TestCacheKeyBoundedAndStructural(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("segment/", 50)
	key := CacheKey(long, nil)

	if len(key) > maxCacheKeyLen {
		t.Errorf("Expected key length <= %d, got %d", maxCacheKeyLen, len(key))
	}
	if strings.ContainsAny(key, "/:") {
		t.Errorf("Expected structural characters replaced, got %q", key)
	}
}

func TestCacheKeyNilOptions(t *testing.T) {
	if CacheKey("https://example.com", nil) != CacheKey("https://example.com", map[string]interface{}{}) {
		t.Error("Expected nil options to equal empty options")
	}
}

func TestMemoryCacheHeaderPreserved(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	h := http.Header{}
	h.Set("Content-Type", "text/html")
	c.Set("key", &CacheEntry{Header: h})

	entry, ok := c.Get("key")
	if !ok {
		t.Fatal("Expected hit")
	}
	if got := entry.Header.Get("Content-Type"); got != "text/html" {
		t.Errorf("Expected header preserved, got %q", got)
	}
}
