// MIT License
//
// Copyright (c) 2025-2026 Prestige Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package prestige

import (
	"time"

	"github.com/hfritz34/prestige-native-sub000/internal/memstore"
)

// ResponseCache is the local cache tier. It namespaces keys by category,
// applies the category's TTL on every write and accounts hits, misses,
// expiries, sets and invalidations per category.
//
// Values are held as raw bytes, the same representation the remote tier
// transports, so a payload moves between tiers without re-encoding.
type ResponseCache struct {
	store    *memstore.Store
	registry *registry
	stats    *Statistics
}

// NewResponseCache creates a local tier bounded by maxEntries and maxBytes
// over the given category table.
func NewResponseCache(descriptors []CategoryDescriptor, maxEntries int, maxBytes int64) *ResponseCache {
	return &ResponseCache{
		store:    memstore.New(maxEntries, maxBytes),
		registry: newRegistry(descriptors),
		stats:    NewStatistics(),
	}
}

// setClock overrides the underlying store's time source.
func (c *ResponseCache) setClock(clock func() time.Time) {
	c.store.SetClock(clock)
}

// Get returns the cached response for key in category. A stale entry is
// removed, counted as an expiry, and reported as a miss.
func (c *ResponseCache) Get(category Category, key string) ([]byte, error) {
	descriptor, ok := c.registry.lookup(category)
	if !ok {
		return nil, ErrUnknownCategory
	}

	value, outcome := c.store.Get(descriptor.cacheKey(key))
	switch outcome {
	case memstore.Hit:
		c.stats.recordHit(category)
		return value, nil
	case memstore.Expired:
		c.stats.recordExpiry(category)
		c.stats.recordMiss(category)
		return nil, ErrNotFound
	default:
		c.stats.recordMiss(category)
		return nil, ErrNotFound
	}
}

// StoredAt returns when the fresh entry for key was written.
func (c *ResponseCache) StoredAt(category Category, key string) (time.Time, bool) {
	descriptor, ok := c.registry.lookup(category)
	if !ok {
		return time.Time{}, false
	}
	return c.store.StoredAt(descriptor.cacheKey(key))
}

// Set caches value under key with the category's TTL.
func (c *ResponseCache) Set(category Category, key string, value []byte) error {
	descriptor, ok := c.registry.lookup(category)
	if !ok {
		return ErrUnknownCategory
	}

	c.store.Set(descriptor.cacheKey(key), value, descriptor.TTL)
	c.stats.recordSet(category)
	return nil
}

// Evict removes a single entry without recording an invalidation. Used for
// corrupt payloads, which are accounted as errors instead.
func (c *ResponseCache) Evict(category Category, key string) {
	if descriptor, ok := c.registry.lookup(category); ok {
		c.store.Remove(descriptor.cacheKey(key))
		c.stats.recordError(category)
	}
}

// Invalidate removes entries under the category. With no patterns the whole
// category is cleared; with patterns only keys containing one of them are
// removed. The store enumerates keys by prefix, so invalidation is always
// precise. It returns the number of removed entries.
func (c *ResponseCache) Invalidate(category Category, patterns ...string) (int, error) {
	descriptor, ok := c.registry.lookup(category)
	if !ok {
		return 0, ErrUnknownCategory
	}

	prefix := descriptor.KeyPrefix + ":"
	removed := 0
	if len(patterns) == 0 {
		removed = c.store.RemovePrefix(prefix)
	} else {
		for _, pattern := range patterns {
			removed += c.store.RemoveMatch(prefix, pattern)
		}
	}

	if removed > 0 {
		c.stats.recordInvalidations(category, uint64(removed))
	}
	return removed, nil
}

// Clear removes every entry in every category.
func (c *ResponseCache) Clear() {
	c.store.Clear()
}

// Sweep removes expired entries. Returns how many were removed.
func (c *ResponseCache) Sweep() int {
	return c.store.Sweep()
}

// Stats exposes the per-category counters.
func (c *ResponseCache) Stats() *Statistics {
	return c.stats
}

// Len returns the number of stored entries.
func (c *ResponseCache) Len() int {
	return c.store.Len()
}

// Bytes returns the cumulative stored payload size.
func (c *ResponseCache) Bytes() int64 {
	return c.store.Bytes()
}
