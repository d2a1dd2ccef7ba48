package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds a PageCache built without WithMaxEntries.
const DefaultMaxEntries = 1024

// PageCache memoizes rendered public responses by key. Each entry is tagged
// and can be dropped by tag, by path or by expiry. Concurrent misses for the
// same key share one load.
type PageCache struct {
	ttl        time.Duration
	now        func() time.Time
	maxEntries int
	group      singleflight.Group

	mu      sync.RWMutex
	entries map[string]pageEntry
	// generation changes on every Invalidate. A load that started under an
	// older generation may have read stale data and is not stored.
	generation uint64
	inflight   map[string]int
}

type pageEntry struct {
	value   []byte
	tags    []string
	path    string
	expires time.Time
}

type PageCacheOption func(*PageCache)

// WithMaxEntries caps how many entries are kept. When the cache is full,
// expired entries are swept and then the entry closest to expiry is evicted.
func WithMaxEntries(n int) PageCacheOption {
	return func(c *PageCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func NewPageCache(ttl time.Duration, opts ...PageCacheOption) *PageCache {
	c := &PageCache{
		ttl:        ttl,
		now:        time.Now,
		maxEntries: DefaultMaxEntries,
		entries:    make(map[string]pageEntry),
		inflight:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Loader produces a value for a missing key along with the tags it depends on.
type Loader func(ctx context.Context) ([]byte, []string, error)

// Get returns the cached value of key or runs load once for all concurrent
// callers. path is the public path the value belongs to. Failed loads are not
// cached, and neither are loads overtaken by an Invalidate.
func (c *PageCache) Get(ctx context.Context, key, path string, load Loader) ([]byte, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		c.mu.Lock()
		generation := c.generation
		c.inflight[key]++
		c.mu.Unlock()

		value, tags, err := load(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[key]--; c.inflight[key] <= 0 {
			delete(c.inflight, key)
		}
		if err != nil {
			return nil, err
		}
		if c.generation == generation {
			c.storeLocked(key, pageEntry{value: value, tags: tags, path: path, expires: c.now().Add(c.ttl)})
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *PageCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *PageCache) storeLocked(key string, e pageEntry) {
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = e
}

// evictLocked drops expired entries, then the soonest to expire if the cache
// is still full.
func (c *PageCache) evictLocked() {
	now := c.now()
	var (
		soonestKey string
		soonest    time.Time
	)
	for key, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, key)
			continue
		}
		if soonestKey == "" || e.expires.Before(soonest) {
			soonestKey, soonest = key, e.expires
		}
	}
	if len(c.entries) >= c.maxEntries && soonestKey != "" {
		delete(c.entries, soonestKey)
	}
}

// Invalidate drops every entry carrying one of the tags or stored for one of
// the paths. Loads still running are detached so later callers load afresh.
func (c *PageCache) Invalidate(_ context.Context, s Signal) {
	tags := make(map[string]bool, len(s.Tags))
	for _, t := range s.Tags {
		tags[t] = true
	}
	paths := make(map[string]bool, len(s.Paths))
	for _, p := range s.Paths {
		paths[p] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for key := range c.inflight {
		c.group.Forget(key)
	}
	for key, e := range c.entries {
		if paths[e.path] {
			delete(c.entries, key)
			continue
		}
		for _, t := range e.tags {
			if tags[t] {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
