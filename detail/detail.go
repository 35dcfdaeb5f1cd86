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

// Package detail caches album detail views.
//
// One detail entry bundles the album's tracks, the user's ratings for those
// tracks, and the friends who listened, all under a single shared TTL, so a
// detail screen never renders a half-fresh mix of sub-resources. Preload
// warms the cache ahead of navigation and is idempotent per album id while
// a load is in flight.
package detail

import (
	"context"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	prestige "github.com/hfritz34/prestige-native-sub000"
	"github.com/hfritz34/prestige-native-sub000/log"
)

// Bundle is one album's detail view: tracks, the user's ratings, and the
// friends who listened, fetched together and expiring together.
type Bundle struct {
	AlbumID string
	Tracks  []byte
	Ratings []byte
	Friends []byte
}

// Loader fetches the three sub-resources of an album detail view.
type Loader interface {
	LoadTracks(ctx context.Context, albumID string) ([]byte, error)
	LoadRatings(ctx context.Context, albumID string) ([]byte, error)
	LoadFriends(ctx context.Context, albumID string) ([]byte, error)
}

// DefaultTTL is the shared freshness window of a detail entry.
const DefaultTTL = time.Hour

type cachedBundle struct {
	bundle   *Bundle
	storedAt time.Time
}

// Cache holds album detail bundles.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cachedBundle

	loader     Loader
	ttl        time.Duration
	logger     log.Logger
	clock      func() time.Time
	preloading mapset.Set[string]
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the shared freshness window of detail entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithClock overrides the time source. Tests use it to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

// NewCache creates a detail cache backed by the given loader.
func NewCache(loader Loader, opts ...Option) *Cache {
	cache := &Cache{
		entries:    make(map[string]cachedBundle),
		loader:     loader,
		ttl:        DefaultTTL,
		logger:     log.DiscardLogger,
		clock:      time.Now,
		preloading: mapset.NewSet[string](),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// Get returns the cached bundle for albumID without loading. It fails with
// ErrNotFound on miss or expiry.
func (c *Cache) Get(albumID string) (*Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[albumID]
	if !ok {
		return nil, prestige.ErrNotFound
	}
	if c.clock().Sub(cached.storedAt) >= c.ttl {
		delete(c.entries, albumID)
		return nil, prestige.ErrNotFound
	}
	return cached.bundle, nil
}

// GetOrLoad returns the cached bundle for albumID, loading and caching it
// on miss.
func (c *Cache) GetOrLoad(ctx context.Context, albumID string) (*Bundle, error) {
	if bundle, err := c.Get(albumID); err == nil {
		return bundle, nil
	}
	return c.load(ctx, albumID)
}

// Preload warms the cache for albumID in the background. It is a no-op
// when the bundle is already cached or a preload for the same id is in
// flight; the caller never observes the outcome.
func (c *Cache) Preload(albumID string) {
	if _, err := c.Get(albumID); err == nil {
		return
	}
	if !c.preloading.Add(albumID) {
		return
	}

	go func() {
		defer c.preloading.Remove(albumID)
		if _, err := c.load(context.Background(), albumID); err != nil {
			c.logger.Debugf("detail preload for album %s failed: %v", albumID, err)
		}
	}()
}

// Invalidate removes the cached bundle for albumID, for example after the
// user re-rates one of its tracks.
func (c *Cache) Invalidate(albumID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, albumID)
}

// Len reports the number of cached bundles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Preloading reports whether a preload for albumID is in flight.
func (c *Cache) Preloading(albumID string) bool {
	return c.preloading.Contains(albumID)
}

// load fetches the three sub-resources concurrently and caches the bundle.
// Any sub-fetch failure fails the whole load and caches nothing.
func (c *Cache) load(ctx context.Context, albumID string) (*Bundle, error) {
	bundle := &Bundle{AlbumID: albumID}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		bundle.Tracks, err = c.loader.LoadTracks(ctx, albumID)
		return err
	})
	group.Go(func() (err error) {
		bundle.Ratings, err = c.loader.LoadRatings(ctx, albumID)
		return err
	})
	group.Go(func() (err error) {
		bundle.Friends, err = c.loader.LoadFriends(ctx, albumID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("detail load for album %s failed: %w", albumID, err)
	}

	c.mu.Lock()
	c.entries[albumID] = cachedBundle{bundle: bundle, storedAt: c.clock()}
	c.mu.Unlock()
	return bundle, nil
}
