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

// Package charts caches hourly chart data.
//
// Chart source data only changes on hour boundaries, so freshness is not
// elapsed time: an entry is fresh while its stored-at clock hour equals the
// current clock hour. An entry written at 10:58 is fresh at 10:59 and stale
// at 11:01. A background refresher can proactively refetch the hottest
// chart keys when the hour rolls over instead of waiting for the next read.
package charts

import (
	"context"
	"fmt"
	"time"

	prestige "github.com/hfritz34/prestige-native-sub000"
	"github.com/hfritz34/prestige-native-sub000/internal/memstore"
	"github.com/hfritz34/prestige-native-sub000/log"
)

// Fetcher produces a fresh chart payload for a key.
type Fetcher interface {
	FetchChart(ctx context.Context, key string) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key string) ([]byte, error)

// FetchChart implements Fetcher.
func (f FetcherFunc) FetchChart(ctx context.Context, key string) ([]byte, error) {
	return f(ctx, key)
}

var _ Fetcher = FetcherFunc(nil)

// HourCache caches chart payloads that are fresh within one clock hour.
type HourCache struct {
	store   *memstore.Store
	fetcher Fetcher
	tracker *tracker
	logger  log.Logger
	clock   func() time.Time
}

// Option configures an HourCache.
type Option func(*HourCache)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *HourCache) { c.logger = logger }
}

// WithClock overrides the time source. Tests use it to cross hour
// boundaries.
func WithClock(clock func() time.Time) Option {
	return func(c *HourCache) { c.clock = clock }
}

// WithCapacity bounds the underlying store.
func WithCapacity(maxEntries int, maxBytes int64) Option {
	return func(c *HourCache) { c.store = memstore.New(maxEntries, maxBytes) }
}

// NewHourCache creates an hour-aligned chart cache backed by the given
// fetcher.
func NewHourCache(fetcher Fetcher, opts ...Option) *HourCache {
	cache := &HourCache{
		store:   memstore.New(256, 2<<20),
		fetcher: fetcher,
		tracker: newTracker(defaultTrackedKeys),
		logger:  log.DiscardLogger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(cache)
	}
	cache.store.SetClock(cache.clock)
	return cache
}

// Get returns the cached chart for key when it was stored within the
// current clock hour. Stale entries are removed and reported as
// ErrNotFound.
func (c *HourCache) Get(key string) ([]byte, error) {
	value, outcome := c.store.Get(key)
	if outcome != memstore.Hit {
		return nil, prestige.ErrNotFound
	}

	storedAt, ok := c.store.StoredAt(key)
	if !ok || !sameHour(storedAt, c.clock()) {
		c.store.Remove(key)
		return nil, prestige.ErrNotFound
	}

	c.tracker.record(key)
	return value, nil
}

// GetOrFetch returns the chart for key, fetching and caching it when the
// cached copy is missing or from a previous clock hour.
func (c *HourCache) GetOrFetch(ctx context.Context, key string) ([]byte, error) {
	if value, err := c.Get(key); err == nil {
		return value, nil
	}
	c.tracker.record(key)
	return c.refresh(ctx, key)
}

// Set stores a chart payload directly, stamped with the current clock
// hour.
func (c *HourCache) Set(key string, value []byte) {
	// Entries never expire by elapsed time; staleness is decided by the
	// clock-hour check on read.
	c.store.Set(key, value, 0)
}

// Len reports the number of cached charts, stale entries included.
func (c *HourCache) Len() int {
	return c.store.Len()
}

// Clear drops every cached chart.
func (c *HourCache) Clear() {
	c.store.Clear()
}

func (c *HourCache) refresh(ctx context.Context, key string) ([]byte, error) {
	value, err := c.fetcher.FetchChart(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("chart fetch for %s failed: %w", key, err)
	}
	c.store.Set(key, value, 0)
	return value, nil
}

func sameHour(a, b time.Time) bool {
	return a.Truncate(time.Hour).Equal(b.Truncate(time.Hour))
}
