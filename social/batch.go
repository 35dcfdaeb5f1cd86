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

package social

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hfritz34/prestige-native-sub000/internal/memstore"
)

// PopulateBatch warms the cache for every key that is not already fresh.
//
// Keys are processed in sequential batches of the configured fanout; within
// a batch producer calls run concurrently, and between batches the cache
// pauses for the configured delay. Individual fetch failures are logged and
// skipped so one slow or broken friend does not sink the whole warm-up.
// PopulateBatch returns the number of entries actually populated, stopping
// early only when ctx is done.
func (c *ComparisonCache) PopulateBatch(ctx context.Context, keys []Key) (int, error) {
	pending := make([]Key, 0, len(keys))
	for _, key := range keys {
		if _, outcome := c.store.Get(key.cacheKey()); outcome != memstore.Hit {
			pending = append(pending, key)
		}
	}

	var populated atomic.Int64
	for start := 0; start < len(pending); start += c.fanout {
		end := start + c.fanout
		if end > len(pending) {
			end = len(pending)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(c.fanout)
		for _, key := range pending[start:end] {
			key := key
			group.Go(func() error {
				if _, err := c.populate(groupCtx, key); err != nil {
					c.logger.Warnf("batch population skipped %s: %v", key.cacheKey(), err)
					return nil
				}
				populated.Add(1)
				return nil
			})
		}
		_ = group.Wait()

		if end < len(pending) {
			select {
			case <-ctx.Done():
				return int(populated.Load()), ctx.Err()
			case <-time.After(c.batchDelay):
			}
		}
	}

	return int(populated.Load()), nil
}
