package webtoolkit

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// cacheSoftCap triggers cleanup once exceeded.
	cacheSoftCap = 1000

	// cacheHardCap is what cleanup trims down to when purging stale
	// entries alone is not enough.
	cacheHardCap = 800

	// maxCacheKeyLen bounds key length. Distinct URLs that collide after
	// truncation conflate; that approximation is accepted in place of
	// cryptographic hashing.
	maxCacheKeyLen = 100

	// maxCachedBodyBytes bounds the response body size stored per entry.
	maxCachedBodyBytes = 10 * 1024 * 1024
)

// CacheEntry is a cached fetch result with its insertion time.
type CacheEntry struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	InsertedAt time.Time
}

// Cache is the response cache interface. Implementations must treat every
// operation as best effort: a cache failure never fails a fetch.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry)
	Delete(key string)
	Clear()
	Len() int
}

// MemoryCache is a bounded in-memory TTL cache. A single mutex guards all
// read/modify/evict sequences so concurrent fetches cannot race between a
// staleness check and a purge.
type MemoryCache struct {
	mu      sync.Mutex
	store   map[string]*CacheEntry
	ttl     time.Duration
	softCap int
	hardCap int

	evictions uint64
}

// NewMemoryCache creates a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		store:   make(map[string]*CacheEntry),
		ttl:     ttl,
		softCap: cacheSoftCap,
		hardCap: cacheHardCap,
	}
}

// Get returns the entry for key if present and fresh. Stale entries are
// purged on access and reported absent.
func (c *MemoryCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}

	if time.Since(entry.InsertedAt) >= c.ttl {
		delete(c.store, key)
		return nil, false
	}

	return entry, true
}

// Set stores entry under key, stamping the insertion time. When the store
// exceeds the soft cap it is cleaned: stale entries first, then
// oldest-inserted entries until at the hard cap.
func (c *MemoryCache) Set(key string, entry *CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.InsertedAt = time.Now()
	c.store[key] = entry

	if len(c.store) > c.softCap {
		c.evictLocked()
	}
}

// Delete removes the entry for key, if any.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

// Clear removes every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*CacheEntry)
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Evictions returns the number of entries removed by cleanup since
// creation.
func (c *MemoryCache) Evictions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// evictLocked purges stale entries, then trims oldest-first to the hard
// cap. This bounds memory under churn without per-entry LRU bookkeeping.
// Callers must hold c.mu.
func (c *MemoryCache) evictLocked() {
	now := time.Now()
	for key, entry := range c.store {
		if now.Sub(entry.InsertedAt) >= c.ttl {
			delete(c.store, key)
			c.evictions++
		}
	}

	if len(c.store) <= c.hardCap {
		return
	}

	type aged struct {
		key        string
		insertedAt time.Time
	}
	entries := make([]aged, 0, len(c.store))
	for key, entry := range c.store {
		entries = append(entries, aged{key, entry.InsertedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].insertedAt.Before(entries[j].insertedAt)
	})

	for _, e := range entries[:len(entries)-c.hardCap] {
		delete(c.store, e.key)
		c.evictions++
	}
}

// CacheKey derives a deterministic bounded-length key from a URL and its
// fetch options. Options serialize order-independently (encoding/json
// sorts map keys); structural characters are replaced and the result is
// truncated to keep keys printable and short.
func CacheKey(url string, options map[string]interface{}) string {
	if options == nil {
		options = map[string]interface{}{}
	}

	serialized, err := json.Marshal(options)
	if err != nil {
		serialized = []byte("{}")
	}

	key := url + ":" + string(serialized)
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, ":", "_")
	if len(key) > maxCacheKeyLen {
		key = key[:maxCacheKeyLen]
	}
	return key
}
