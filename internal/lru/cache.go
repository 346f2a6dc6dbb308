// Package lru provides the bounded, strictly-least-recently-used cache
// used to memoize expensive per-candidate external lookups (streaming
// availability) within a single generation run.
package lru

import lru "github.com/hashicorp/golang-lru/v2"

// DefaultCapacity is the capacity used when no override is given — the
// streaming-availability cache is always sized to this.
const DefaultCapacity = 500

// Cache is a fixed-capacity key→value store with strict
// least-recently-touched eviction. A zero Cache is not usable; construct
// with New.
type Cache[K comparable, V any] struct {
	inner *lru.Cache[K, V]
}

// New constructs a Cache with the given capacity. A non-positive capacity
// falls back to DefaultCapacity.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[K, V](capacity)
	if err != nil {
		// lru.New only errors on capacity <= 0, which is excluded above.
		panic(err)
	}
	return &Cache[K, V]{inner: inner}
}

// Get returns the value for k and marks it most-recently-used on a hit.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	return c.inner.Get(k)
}

// Put inserts or updates k, evicting the least-recently-touched entry if
// the cache is at capacity.
func (c *Cache[K, V]) Put(k K, v V) {
	c.inner.Add(k, v)
}

// Clear empties the cache.
func (c *Cache[K, V]) Clear() {
	c.inner.Purge()
}

// Len returns the number of entries currently cached.
func (c *Cache[K, V]) Len() int {
	return c.inner.Len()
}
