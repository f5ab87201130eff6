// Package cache provides a mutex-guarded generic cache with age-based
// eviction. Entries age by one on every Sweep and are evicted once their age
// exceeds the sweep's threshold; any access resets the entry's age to zero.
package cache

import (
	"sync"
	"sync/atomic"
)

// Age is a generic keyed cache whose entries expire after going unused for
// a number of sweeps. The zero value is not usable; construct with NewAge.
// All methods are safe for concurrent use.
type Age[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	stats   Stats
}

type entry[V any] struct {
	value V
	age   uint32
}

// NewAge creates an empty cache.
func NewAge[K comparable, V any]() *Age[K, V] {
	return &Age[K, V]{entries: make(map[K]*entry[V])}
}

// Get returns the value stored under key and marks the entry as used,
// resetting its age.
func (c *Age[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.misses.Add(1)
		var zero V
		return zero, false
	}
	e.age = 0
	c.stats.hits.Add(1)
	return e.value, true
}

// Peek returns the value stored under key without touching its age or the
// hit/miss counters.
func (c *Age[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, resetting the entry's age.
func (c *Age[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry[V]{value: value}
}

// Upsert atomically reads, transforms, and writes the entry under key.
// update receives the current value (or the zero value when absent) and
// returns the value to store. If update returns an error, the cache is left
// unchanged and the error is returned. On success the entry's age resets.
func (c *Age[K, V]) Upsert(key K, update func(old V, ok bool) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	var old V
	if ok {
		old = e.value
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	next, err := update(old, ok)
	if err != nil {
		var zero V
		return zero, err
	}
	if ok {
		e.value = next
		e.age = 0
	} else {
		c.entries[key] = &entry[V]{value: next}
	}
	return next, nil
}

// Take removes and returns the value stored under key.
func (c *Age[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	return e.value, true
}

// Delete removes the entry stored under key, if any.
func (c *Age[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of entries currently cached.
func (c *Age[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Sweep ages every entry by one and evicts entries whose age exceeds maxAge.
// evict, if non-nil, is called for each evicted entry after the cache lock is
// released so that it may release resources or reenter the cache freely.
func (c *Age[K, V]) Sweep(maxAge uint32, evict func(K, V)) {
	type evicted struct {
		key   K
		value V
	}
	var out []evicted

	c.mu.Lock()
	for k, e := range c.entries {
		e.age++
		if e.age > maxAge {
			delete(c.entries, k)
			c.stats.evictions.Add(1)
			if evict != nil {
				out = append(out, evicted{k, e.value})
			}
		}
	}
	c.mu.Unlock()

	for _, ev := range out {
		evict(ev.key, ev.value)
	}
}

// Clear removes all entries. each, if non-nil, is called for every removed
// entry after the cache lock is released.
func (c *Age[K, V]) Clear(each func(K, V)) {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[K]*entry[V])
	c.mu.Unlock()

	if each != nil {
		for k, e := range old {
			each(k, e.value)
		}
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Age[K, V]) Stats() StatsSnapshot {
	return StatsSnapshot{
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Evictions: c.stats.evictions.Load(),
	}
}

// Stats holds the cache counters. Counters are atomic so Stats snapshots
// never require the cache lock.
type Stats struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
