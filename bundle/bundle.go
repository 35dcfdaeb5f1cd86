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

// Package bundle coordinates multi-source content loads.
//
// A content view aggregates items from several independent sources into one
// ranked list. The coordinator runs the sub-fetches concurrently, merges
// and ranks the results, truncates to the display limit, and caches the
// aggregate as a single entry with a per-view TTL. A failed sub-fetch fails
// the whole load and caches nothing: a clearly failed view beats a silently
// incomplete one.
package bundle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	prestige "github.com/hfritz34/prestige-native-sub000"
	"github.com/hfritz34/prestige-native-sub000/log"
)

// RangeKey selects one of the enumerated content views.
type RangeKey string

const (
	// RangeRecent is the recently-played view; its source data changes
	// constantly.
	RangeRecent RangeKey = "recent"
	// RangeMonthly is the rolling-month view.
	RangeMonthly RangeKey = "monthly"
	// RangeAllTime is the all-time view; its source data barely moves.
	RangeAllTime RangeKey = "alltime"
)

// DefaultTTLs maps each view to its cache lifetime. Frequently-changing
// views get short TTLs, stable views long ones.
func DefaultTTLs() map[RangeKey]time.Duration {
	return map[RangeKey]time.Duration{
		RangeRecent:  5 * time.Minute,
		RangeMonthly: time.Hour,
		RangeAllTime: 24 * time.Hour,
	}
}

// DefaultDisplayLimit is the number of items a view shows after ranking.
const DefaultDisplayLimit = 50

// Item is one ranked entry of a content view. Items sort by Score
// descending, then ListenSeconds descending, then ID ascending for a
// stable order.
type Item struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Score         int64  `json:"score"`
	ListenSeconds int64  `json:"listen_seconds"`
}

// Bundle is the aggregated, ranked result of one view load.
type Bundle struct {
	OwnerID  string    `json:"owner_id"`
	Range    RangeKey  `json:"range"`
	Items    []Item    `json:"items"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Source contributes items to a view. Each configured source is fetched
// once per load.
type Source interface {
	// Name labels the source in errors and logs.
	Name() string
	// FetchItems returns the source's items for the owner and view.
	FetchItems(ctx context.Context, ownerID string, rangeKey RangeKey) ([]Item, error)
}

type cachedBundle struct {
	bundle   *Bundle
	storedAt time.Time
	ttl      time.Duration
}

// Coordinator loads, ranks, and caches content view bundles.
type Coordinator struct {
	sources      []Source
	ttls         map[RangeKey]time.Duration
	displayLimit int
	logger       log.Logger
	clock        func() time.Time

	cache *bundleCache
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTTLs overrides the per-view cache lifetimes.
func WithTTLs(ttls map[RangeKey]time.Duration) Option {
	return func(c *Coordinator) { c.ttls = ttls }
}

// WithDisplayLimit sets the number of items kept after ranking.
func WithDisplayLimit(limit int) Option {
	return func(c *Coordinator) { c.displayLimit = limit }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithClock overrides the time source. Tests use it to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// NewCoordinator creates a coordinator over the given sources.
func NewCoordinator(sources []Source, opts ...Option) (*Coordinator, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}

	coordinator := &Coordinator{
		sources:      sources,
		ttls:         DefaultTTLs(),
		displayLimit: DefaultDisplayLimit,
		logger:       log.DiscardLogger,
		clock:        time.Now,
		cache:        newBundleCache(),
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator, nil
}

// Load returns the bundle for the owner's view. A fresh cached bundle is
// returned as-is unless force is set; otherwise every source is fetched
// concurrently and the merged, ranked, truncated result is cached as one
// entry. Any sub-fetch error fails the load and leaves the cache for this
// view untouched.
func (c *Coordinator) Load(ctx context.Context, ownerID string, rangeKey RangeKey, force bool) (*Bundle, error) {
	ttl, ok := c.ttls[rangeKey]
	if !ok {
		return nil, fmt.Errorf("unknown content range %q", rangeKey)
	}

	key := ownerID + "|" + string(rangeKey)
	if !force {
		if bundle, ok := c.cache.get(key, c.clock()); ok {
			return bundle, nil
		}
	}

	results := make([][]Item, len(c.sources))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, source := range c.sources {
		i, source := i, source
		group.Go(func() error {
			items, err := source.FetchItems(groupCtx, ownerID, rangeKey)
			if err != nil {
				return fmt.Errorf("source %s failed for range %s: %w", source.Name(), rangeKey, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := make([]Item, 0)
	for _, items := range results {
		merged = append(merged, items...)
	}
	rank(merged)
	if len(merged) > c.displayLimit {
		merged = merged[:c.displayLimit]
	}

	bundle := &Bundle{
		OwnerID:  ownerID,
		Range:    rangeKey,
		Items:    merged,
		LoadedAt: c.clock(),
	}
	c.cache.set(key, bundle, c.clock(), ttl)
	return bundle, nil
}

// Cached returns the cached bundle for the owner's view without loading.
// It fails with ErrNotFound on miss or expiry.
func (c *Coordinator) Cached(ownerID string, rangeKey RangeKey) (*Bundle, error) {
	key := ownerID + "|" + string(rangeKey)
	bundle, ok := c.cache.get(key, c.clock())
	if !ok {
		return nil, prestige.ErrNotFound
	}
	return bundle, nil
}

// Invalidate drops the cached bundle for the owner's view.
func (c *Coordinator) Invalidate(ownerID string, rangeKey RangeKey) {
	c.cache.remove(ownerID + "|" + string(rangeKey))
}

// InvalidateOwner drops every cached view of the owner.
func (c *Coordinator) InvalidateOwner(ownerID string) {
	c.cache.removePrefix(ownerID + "|")
}

func rank(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].ListenSeconds != items[j].ListenSeconds {
			return items[i].ListenSeconds > items[j].ListenSeconds
		}
		return items[i].ID < items[j].ID
	})
}
