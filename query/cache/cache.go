// Package cache provides an LRU cache for prepared statement templates.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache stores values by key with optional expiry
type Cache[V any] interface {
	// Get retrieves a value from the cache
	Get(key string) (V, bool)
	// Set stores a value, using the default TTL when ttl is zero
	Set(key string, value V, ttl time.Duration)
	// Invalidate removes a specific key from the cache
	Invalidate(key string)
	// Clear removes all entries from the cache
	Clear()
	// Stats returns cache statistics
	Stats() Stats
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRU implements Cache with least-recently-used eviction and TTL support
type LRU[V any] struct {
	mu         sync.Mutex
	data       map[string]*node[V]
	maxSize    int
	defaultTTL time.Duration
	head       *node[V]
	tail       *node[V]
	stats      Stats
}

type node[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *node[V]
	next      *node[V]
}

// NewLRU creates an LRU holding at most maxSize entries. A zero defaultTTL never expires.
func NewLRU[V any](maxSize int, defaultTTL time.Duration) *LRU[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LRU[V]{
		data:       make(map[string]*node[V]),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		stats:      Stats{MaxSize: maxSize},
	}
}

// Get retrieves a value from the cache
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	n, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	if !n.expiresAt.IsZero() && time.Now().After(n.expiresAt) {
		c.remove(n)
		c.stats.Misses++
		return zero, false
	}

	c.moveToFront(n)
	c.stats.Hits++
	return n.value, true
}

// Set stores a value in the cache
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if n, ok := c.data[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}

	if len(c.data) >= c.maxSize && c.tail != nil {
		c.remove(c.tail)
		c.stats.Evictions++
	}

	n := &node[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(n)
	c.data[key] = n
}

// Invalidate removes a specific key from the cache
func (c *LRU[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.data[key]; ok {
		c.remove(n)
	}
}

// Clear removes all entries and resets statistics
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*node[V])
	c.head = nil
	c.tail = nil
	c.stats = Stats{MaxSize: c.maxSize}
}

// Stats returns cache statistics
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

func (c *LRU[V]) addToFront(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU[V]) remove(n *node[V]) {
	c.unlink(n)
	delete(c.data, n.key)
}

// Fingerprint returns a short stable key for a SQL string
func Fingerprint(sql string) string {
	return fmt.Sprintf("sql_%016x", xxhash.Sum64String(sql))
}
