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

// Package social caches friend listening comparisons.
//
// Two key shapes share one cache: presence keys (itemType, itemID) answer
// "which friends listened to this", and listen keys (friendID, itemType,
// itemID) answer "how much did this friend listen". Batch population keeps
// producer fanout small and paces itself between batches so that warming a
// whole friends list does not hammer the backend.
package social

import (
	"context"
	"fmt"
	"time"

	prestige "github.com/hfritz34/prestige-native-sub000"
	"github.com/hfritz34/prestige-native-sub000/internal/memstore"
	"github.com/hfritz34/prestige-native-sub000/log"
)

// ItemType identifies the kind of catalog item a comparison refers to.
type ItemType string

const (
	ItemTypeTrack  ItemType = "track"
	ItemTypeAlbum  ItemType = "album"
	ItemTypeArtist ItemType = "artist"
)

// Key identifies one comparison entry. An empty FriendID makes it a
// presence key ("who listened to this item"); a non-empty FriendID makes
// it a listen key ("how much did this friend listen").
type Key struct {
	FriendID string
	ItemType ItemType
	ItemID   string
}

func (k Key) cacheKey() string {
	if k.FriendID == "" {
		return fmt.Sprintf("presence|%s|%s", k.ItemType, k.ItemID)
	}
	return fmt.Sprintf("listen|%s|%s|%s", k.FriendID, k.ItemType, k.ItemID)
}

// Fetcher produces a fresh comparison payload for a key.
type Fetcher interface {
	FetchComparison(ctx context.Context, key Key) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key Key) ([]byte, error)

// FetchComparison implements Fetcher.
func (f FetcherFunc) FetchComparison(ctx context.Context, key Key) ([]byte, error) {
	return f(ctx, key)
}

var _ Fetcher = FetcherFunc(nil)

const (
	// DefaultTTL matches the friends category freshness window.
	DefaultTTL = 30 * time.Minute
	// DefaultFanout bounds concurrent producer calls during batch
	// population.
	DefaultFanout = 5
	// DefaultBatchDelay is the pause between sequential population
	// batches.
	DefaultBatchDelay = 200 * time.Millisecond
)

// ComparisonCache caches friend comparison payloads with a shared TTL.
type ComparisonCache struct {
	store      *memstore.Store
	fetcher    Fetcher
	ttl        time.Duration
	fanout     int
	batchDelay time.Duration
	logger     log.Logger
}

// Option configures a ComparisonCache.
type Option func(*ComparisonCache)

// WithTTL sets the freshness window of cached comparisons.
func WithTTL(ttl time.Duration) Option {
	return func(c *ComparisonCache) { c.ttl = ttl }
}

// WithFanout bounds the number of concurrent producer calls per batch.
func WithFanout(fanout int) Option {
	return func(c *ComparisonCache) { c.fanout = fanout }
}

// WithBatchDelay sets the pause between sequential population batches.
func WithBatchDelay(delay time.Duration) Option {
	return func(c *ComparisonCache) { c.batchDelay = delay }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *ComparisonCache) { c.logger = logger }
}

// WithCapacity bounds the underlying store.
func WithCapacity(maxEntries int, maxBytes int64) Option {
	return func(c *ComparisonCache) { c.store = memstore.New(maxEntries, maxBytes) }
}

// NewComparisonCache creates a comparison cache backed by the given
// fetcher.
func NewComparisonCache(fetcher Fetcher, opts ...Option) *ComparisonCache {
	cache := &ComparisonCache{
		store:      memstore.New(1024, 4<<20),
		fetcher:    fetcher,
		ttl:        DefaultTTL,
		fanout:     DefaultFanout,
		batchDelay: DefaultBatchDelay,
		logger:     log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// Get returns the cached comparison for key without fetching. It fails
// with ErrNotFound on miss or expiry.
func (c *ComparisonCache) Get(key Key) ([]byte, error) {
	value, outcome := c.store.Get(key.cacheKey())
	if outcome != memstore.Hit {
		return nil, prestige.ErrNotFound
	}
	return value, nil
}

// GetOrFetch returns the cached comparison for key, fetching and caching
// it on miss.
func (c *ComparisonCache) GetOrFetch(ctx context.Context, key Key) ([]byte, error) {
	if value, err := c.Get(key); err == nil {
		return value, nil
	}
	return c.populate(ctx, key)
}

// Set stores a comparison payload directly, bypassing the fetcher.
func (c *ComparisonCache) Set(key Key, value []byte) {
	c.store.Set(key.cacheKey(), value, c.ttl)
}

// Len reports the number of cached comparisons.
func (c *ComparisonCache) Len() int {
	return c.store.Len()
}

// InvalidateFriend removes every listen entry for the given friend, for
// example after unfriending.
func (c *ComparisonCache) InvalidateFriend(friendID string) int {
	return c.store.RemovePrefix("listen|" + friendID + "|")
}

// Clear drops every cached comparison.
func (c *ComparisonCache) Clear() {
	c.store.Clear()
}

func (c *ComparisonCache) populate(ctx context.Context, key Key) ([]byte, error) {
	value, err := c.fetcher.FetchComparison(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("comparison fetch for %s failed: %w", key.cacheKey(), err)
	}
	c.store.Set(key.cacheKey(), value, c.ttl)
	return value, nil
}
