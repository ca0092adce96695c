// Package cache provides the station snapshot holder and a generic keyed
// TTL cache
package cache

import (
	"sync"
	"time"
)

// item wraps a cached value with its expiration time
type item[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a thread-safe keyed cache with TTL expiration
type Cache[T any] struct {
	items map[string]item[T]
	mu    sync.RWMutex
	ttl   time.Duration
	max   int
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// Option configures a Cache
type Option func(*options)

type options struct {
	now        func() time.Time
	janitor    bool
	maxEntries int
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithoutJanitor disables the background sweep of expired entries
func WithoutJanitor() Option {
	return func(o *options) { o.janitor = false }
}

// WithMaxEntries bounds the number of stored items. When full, Set drops
// expired items first and then the item closest to expiry.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// New creates a cache with the specified TTL
func New[T any](ttl time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now, janitor: true}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
		max:   o.maxEntries,
		now:   o.now,
		stop:  make(chan struct{}),
	}
	if o.janitor {
		go c.cleanup()
	}
	return c
}

// Get retrieves a value, returning (value, true) if found and not expired
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || c.now().After(item.expiresAt) {
		var zero T
		return zero, false
	}
	return item.value, true
}

// Set stores a value with the cache's TTL
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.max > 0 && len(c.items) >= c.max {
		c.evictLocked()
	}
	c.items[key] = item[T]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// size returns the number of items, including expired ones
func (c *Cache[T]) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine. It is safe to call twice.
func (c *Cache[T]) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup runs periodically to remove expired items
func (c *Cache[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[T]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeExpiredLocked()
}

func (c *Cache[T]) removeExpiredLocked() {
	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

// evictLocked makes room for one item. Caller holds c.mu.
func (c *Cache[T]) evictLocked() {
	c.removeExpiredLocked()
	if len(c.items) < c.max {
		return
	}

	var (
		oldest    string
		oldestExp time.Time
		found     bool
	)
	for key, item := range c.items {
		if !found || item.expiresAt.Before(oldestExp) {
			oldest, oldestExp, found = key, item.expiresAt, true
		}
	}
	delete(c.items, oldest)
}
