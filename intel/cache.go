package intel

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"qrsentry/verdict"
)

// Cache remembers recent verdicts per URL so repeated scans of the same code
// do not burn remote-API quota. Entries are keyed by the xxhash of the URL
// and expire after a fixed TTL.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[uint64]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	verdict verdict.Verdict
	expires time.Time
}

// NewCache builds a verdict cache. A non-positive ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[uint64]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached verdict for the URL if it is still fresh.
func (c *Cache) Get(rawURL string) (verdict.Verdict, bool) {
	if c == nil || c.ttl <= 0 {
		return verdict.Verdict{}, false
	}
	key := xxhash.Sum64String(rawURL)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return verdict.Verdict{}, false
	}
	return entry.verdict, true
}

// Put stores a verdict for the URL. Expired entries are swept lazily on
// insert to keep the map bounded without a background goroutine.
func (c *Cache) Put(rawURL string, v verdict.Verdict) {
	if c == nil || c.ttl <= 0 {
		return
	}
	key := xxhash.Sum64String(rawURL)
	now := c.now()
	c.mu.Lock()
	for k, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{verdict: v, expires: now.Add(c.ttl)}
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
