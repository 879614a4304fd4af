// Package cache provides the process-wide snapshot cache fronting the
// expensive aggregations: keyed, TTL-based memoization with an injected
// clock. Entries are replaced wholesale on recompute and never evicted;
// the key space is small and finite (one slot per aggregation kind and
// parameter tuple).
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Clock supplies the current time. Injected so expiry is testable.
type Clock func() time.Time

// Result reports how a payload was obtained.
type Result struct {
	Cached     bool
	ComputedAt time.Time
}

type entry struct {
	payload    any
	computedAt time.Time
}

// Cache is safe for concurrent use. Racing misses are not de-duplicated:
// each racer computes independently and the last writer wins, which is
// acceptable because computations are idempotent and side-effect free.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   Clock
}

func New(clock Clock) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// GetOrCompute returns the cached payload for key when it is younger
// than ttl, otherwise invokes fn, stores the result and returns it.
// Errors from fn are returned as-is and nothing is stored.
func GetOrCompute[T any](c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, Result, error) {
	now := c.clock()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Sub(e.computedAt) < ttl {
		if payload, valid := e.payload.(T); valid {
			return payload, Result{Cached: true, ComputedAt: e.computedAt}, nil
		}
	}

	payload, err := fn()
	if err != nil {
		var zero T
		return zero, Result{}, err
	}

	c.mu.Lock()
	c.entries[key] = entry{payload: payload, computedAt: now}
	c.mu.Unlock()

	return payload, Result{Cached: false, ComputedAt: now}, nil
}

// Len reports the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key builds a cache key from an aggregation kind and its parameters.
// Parameter order does not affect the resulting key.
func Key(kind string, params map[string]string) string {
	if len(params) == 0 {
		return kind
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(kind)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}
