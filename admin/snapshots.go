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

package admin

import (
	"sort"

	prestige "github.com/hfritz34/prestige-native-sub000"
	"github.com/hfritz34/prestige-native-sub000/ratelimit"
)

// CategoryStatsSnapshot is the admin-facing JSON payload for one cache
// category's counters.
//
// Values are sampled at request time. Counters represent process-lifetime
// totals and are not reset between calls. HitRate is hits over hits plus
// misses, zero when the category has seen no reads.
type CategoryStatsSnapshot struct {
	Category      string  `json:"category"`
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Sets          uint64  `json:"sets"`
	Expiries      uint64  `json:"expiries"`
	Errors        uint64  `json:"errors"`
	Invalidations uint64  `json:"invalidations"`
	HitRate       float64 `json:"hit_rate"`
}

// RateLimitSnapshot is the admin-facing JSON payload for one rate
// category's window state. ResetInMillis is the estimated wait until the
// next slot frees, zero when the window has budget.
type RateLimitSnapshot struct {
	Category      string `json:"category"`
	Current       int    `json:"current"`
	Max           int    `json:"max"`
	ResetInMillis int64  `json:"reset_in_millis"`
}

// SnapshotStats converts engine counters to their JSON form, sorted by
// category for stable output.
func SnapshotStats(stats map[prestige.Category]prestige.CategoryStats) []CategoryStatsSnapshot {
	snapshots := make([]CategoryStatsSnapshot, 0, len(stats))
	for category, counters := range stats {
		snapshots = append(snapshots, CategoryStatsSnapshot{
			Category:      string(category),
			Hits:          counters.Hits,
			Misses:        counters.Misses,
			Sets:          counters.Sets,
			Expiries:      counters.Expiries,
			Errors:        counters.Errors,
			Invalidations: counters.Invalidations,
			HitRate:       counters.HitRate(),
		})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Category < snapshots[j].Category
	})
	return snapshots
}

// SnapshotRateLimits converts limiter usages to their JSON form, sorted by
// category for stable output.
func SnapshotRateLimits(usages map[ratelimit.Category]ratelimit.Usage) []RateLimitSnapshot {
	snapshots := make([]RateLimitSnapshot, 0, len(usages))
	for category, usage := range usages {
		snapshots = append(snapshots, RateLimitSnapshot{
			Category:      string(category),
			Current:       usage.Current,
			Max:           usage.Max,
			ResetInMillis: usage.ResetIn.Milliseconds(),
		})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Category < snapshots[j].Category
	})
	return snapshots
}
