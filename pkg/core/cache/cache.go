// Package cache provides a size bounded LRU cache with per-entry expiry and
// the compiled program cache built on it.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Config configures New. Zero values fall back to DefaultConfig.
type Config struct {
	MaxItems        int
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns the defaults used for unset Config fields
func DefaultConfig() Config {
	return Config{MaxItems: 10000, TTL: 5 * time.Minute, CleanupInterval: time.Minute}
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time // zero: never
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Cache maps string keys to values. When full, the least recently used
// entry is evicted. A background goroutine drops expired entries until
// Close is called.
type Cache[V any] struct {
	mu    sync.Mutex
	order *list.List // front: most recently used
	index map[string]*list.Element
	max   int
	ttl   time.Duration

	hits, misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine
func New[V any](cfg Config) *Cache[V] {
	def := DefaultConfig()
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = def.MaxItems
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	c := &Cache[V]{
		order: list.New(),
		index: make(map[string]*list.Element),
		max:   cfg.MaxItems,
		ttl:   cfg.TTL,
		stop:  make(chan struct{}),
	}
	go c.janitor(cfg.CleanupInterval)
	return c
}

// Get returns the value for key and marks it as recently used
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry[V])
		if !e.expired(time.Now()) {
			c.order.MoveToFront(el)
			c.hits.Add(1)
			return e.value, true
		}
		c.remove(el)
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores value with the cache TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value with its own TTL; ttl <= 0 never expires
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry[V])
		e.value, e.expires = value, expires
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.max {
		c.remove(c.order.Back())
	}
	c.index[key] = c.order.PushFront(&entry[V]{key: key, value: value, expires: expires})
}

// GetOrSet returns the cached value for key or stores the result of fn.
// The bool reports a hit. Errors from fn are returned and not cached.
// Concurrent misses on the same key may each call fn.
func (c *Cache[V]) GetOrSet(key string, fn func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err := fn()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.remove(el)
	}
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.index)
}

// Size counts stored entries, expired ones not yet collected included
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns hit and miss counts and the hit rate in percent
func (c *Cache[V]) Stats() (hits, misses int64, hitRate float64) {
	hits, misses = c.hits.Load(), c.misses.Load()
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return hits, misses, hitRate
}

// Close stops the cleanup goroutine. The cache stays usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// remove must be called with mu held
func (c *Cache[V]) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry[V])
	delete(c.index, e.key)
}

func (c *Cache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.collect(now)
		}
	}
}

func (c *Cache[V]) collect(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry[V]).expired(now) {
			c.remove(el)
		}
		el = next
	}
}
