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

package charts

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultTrackedKeys = 100

// tracker records chart key access frequency with a bounded counter map.
// When the map overflows, the least-hit key is dropped.
type tracker struct {
	mu      sync.Mutex
	maxKeys int
	counts  map[string]uint64
}

func newTracker(maxKeys int) *tracker {
	return &tracker{
		maxKeys: maxKeys,
		counts:  make(map[string]uint64),
	}
}

func (t *tracker) record(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[key]++
	if len(t.counts) <= t.maxKeys {
		return
	}

	var coldKey string
	var coldCount uint64
	first := true
	for k, count := range t.counts {
		if first || count < coldCount {
			coldKey = k
			coldCount = count
			first = false
		}
	}
	delete(t.counts, coldKey)
}

func (t *tracker) topKeys(limit int, minHits uint64) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 {
		return nil
	}

	type keyCount struct {
		key   string
		count uint64
	}

	entries := make([]keyCount, 0, len(t.counts))
	for k, count := range t.counts {
		if count < minHits {
			continue
		}
		entries = append(entries, keyCount{key: k, count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].key < entries[j].key
		}
		return entries[i].count > entries[j].count
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.key)
	}
	return keys
}

// RefreshConfig controls proactive chart refreshing on hour rollover.
type RefreshConfig struct {
	// MaxHotKeys bounds the number of keys refetched per rollover.
	MaxHotKeys int
	// MinHits is the minimum access count for a key to be refetched.
	MinHits uint64
	// PollInterval is how often the refresher checks for a rollover.
	PollInterval time.Duration
}

// Normalize returns a configuration with defaults applied.
func (c RefreshConfig) Normalize() RefreshConfig {
	config := c
	if config.MaxHotKeys <= 0 {
		config.MaxHotKeys = 10
	}
	if config.MinHits == 0 {
		config.MinHits = 2
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	return config
}

// Refresher refetches the hottest chart keys when the clock hour rolls
// over, so readers keep hitting fresh entries instead of paying the fetch
// on first read of the new hour.
type Refresher struct {
	cache    *HourCache
	config   RefreshConfig
	stopSign chan struct{}
	stopOnce sync.Once
}

// NewRefresher creates a refresher for the given cache.
func NewRefresher(cache *HourCache, config RefreshConfig) *Refresher {
	return &Refresher{
		cache:    cache,
		config:   config.Normalize(),
		stopSign: make(chan struct{}),
	}
}

// Start launches the background refresh loop. It returns immediately.
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop halts the refresh loop.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopSign) })
}

func (r *Refresher) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	lastHour := r.cache.clock().Truncate(time.Hour)
	for {
		select {
		case <-r.stopSign:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			hour := r.cache.clock().Truncate(time.Hour)
			if hour.Equal(lastHour) {
				continue
			}
			lastHour = hour
			r.refreshHot(ctx)
		}
	}
}

func (r *Refresher) refreshHot(ctx context.Context) {
	keys := r.cache.tracker.topKeys(r.config.MaxHotKeys, r.config.MinHits)
	for _, key := range keys {
		if _, err := r.cache.refresh(ctx, key); err != nil {
			r.cache.logger.Warnf("hot chart refresh for %s failed: %v", key, err)
		}
	}
	if len(keys) > 0 {
		r.cache.logger.Debugf("refreshed %d hot chart keys", len(keys))
	}
}
