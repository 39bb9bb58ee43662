// Package cache implements the bounded read cache that sits in front of the
// connection actor.
//
// AliasCache maps alias keys to destinations with least-recently-used
// eviction. It is never authoritative: entries are created when a resolve
// misses and the store returns a value, refreshed on every hit, and removed
// either by eviction pressure or by Invalidate after a confirmed write.
//
// Every operation takes the cache mutex only for the in-memory work itself.
// Callers never hold it across a storage round trip, so a slow read on one
// key does not block hits on other keys.
//
// Fill generations:
//
// A resolve that misses reads the store through the actor and then
// populates the cache. If a write to the same key commits and invalidates
// between that read and the populate, a plain Put would re-insert the
// pre-write value. To close that window the cache keeps a fixed array of
// generation counters; a key hashes onto one of them. Invalidate bumps the
// key's counter, Snapshot captures it before the read is submitted, and
// PutIfCurrent stores the value only if the counter has not moved. A fill
// that raced a write is still returned to its own caller but never cached.
// Unrelated keys that share a stripe occasionally skip a fill, which only
// costs a later miss.
package cache

import (
	"hash/fnv"
	"sync"

	"github.com/golang/groupcache/lru"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 4096

// fillStripes is the number of fill generation counters.
const fillStripes = 256

// Generation is an opaque fill token returned by Snapshot.
type Generation uint64

// Metrics receives cache instrumentation. A nil Metrics disables it.
type Metrics interface {
	RecordLookup(hit bool)
	RecordEviction()
	RecordInvalidation()
	RecordFill(stored bool)
	SetEntries(n int)
}

// AliasCache is a bounded LRU map from alias key to destination.
type AliasCache struct {
	mu       sync.Mutex
	entries  *lru.Cache
	capacity int
	gens     [fillStripes]uint64
	metrics  Metrics
}

// New creates a cache holding at most capacity entries. A capacity of zero
// or less selects DefaultCapacity.
func New(capacity int, metrics Metrics) *AliasCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &AliasCache{
		entries:  lru.New(capacity),
		capacity: capacity,
		metrics:  metrics,
	}
}

// Get returns the cached destination for key and marks it most recently used.
func (c *AliasCache) Get(key string) (string, bool) {
	c.mu.Lock()
	v, ok := c.entries.Get(key)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordLookup(ok)
	}
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Put inserts or overwrites key. When the cache is full the least recently
// used entry is evicted first.
func (c *AliasCache) Put(key, value string) {
	c.mu.Lock()
	evicted := c.add(key, value)
	n := c.entries.Len()
	c.mu.Unlock()

	c.observePut(evicted, n)
}

// Snapshot returns the fill generation for key. It must be taken before the
// store read whose result is later passed to PutIfCurrent.
func (c *AliasCache) Snapshot(key string) Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Generation(c.gens[stripe(key)])
}

// PutIfCurrent behaves like Put unless key was invalidated since gen was
// taken, in which case the value is dropped. It reports whether the value
// was stored.
func (c *AliasCache) PutIfCurrent(key, value string, gen Generation) bool {
	c.mu.Lock()
	if Generation(c.gens[stripe(key)]) != gen {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordFill(false)
		}
		return false
	}
	evicted := c.add(key, value)
	n := c.entries.Len()
	c.mu.Unlock()

	c.observePut(evicted, n)
	if c.metrics != nil {
		c.metrics.RecordFill(true)
	}
	return true
}

// Invalidate removes key if present and advances its fill generation, so
// fills that started earlier are discarded.
func (c *AliasCache) Invalidate(key string) {
	c.mu.Lock()
	c.gens[stripe(key)]++
	c.entries.Remove(key)
	n := c.entries.Len()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordInvalidation()
		c.metrics.SetEntries(n)
	}
}

// Len returns the number of cached entries.
func (c *AliasCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Capacity returns the maximum number of entries.
func (c *AliasCache) Capacity() int {
	return c.capacity
}

// add must be called with mu held. It reports whether an entry was evicted.
func (c *AliasCache) add(key, value string) bool {
	_, exists := c.entries.Get(key)
	full := c.entries.Len() >= c.capacity
	c.entries.Add(key, value)
	return !exists && full
}

func (c *AliasCache) observePut(evicted bool, n int) {
	if c.metrics == nil {
		return
	}
	if evicted {
		c.metrics.RecordEviction()
	}
	c.metrics.SetEntries(n)
}

func stripe(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % fillStripes
}
