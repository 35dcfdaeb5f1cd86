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
	"sync/atomic"

	"github.com/hfritz34/prestige-native-sub000/internal/syncmap"
)

// CategoryStats is a snapshot of one category's counters.
// Counters are observational only; they never feed back into cache
// decisions.
type CategoryStats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Sets          uint64 `json:"sets"`
	Expiries      uint64 `json:"expiries"`
	Errors        uint64 `json:"errors"`
	Invalidations uint64 `json:"invalidations"`
}

// HitRate returns hits over reads, or zero when nothing was read.
func (s CategoryStats) HitRate() float64 {
	reads := s.Hits + s.Misses
	if reads == 0 {
		return 0
	}
	return float64(s.Hits) / float64(reads)
}

type categoryCounters struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	sets          atomic.Uint64
	expiries      atomic.Uint64
	errors        atomic.Uint64
	invalidations atomic.Uint64
}

func (c *categoryCounters) snapshot() CategoryStats {
	return CategoryStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Sets:          c.sets.Load(),
		Expiries:      c.expiries.Load(),
		Errors:        c.errors.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// Statistics tracks per-category cache counters. All methods are safe for
// concurrent use.
type Statistics struct {
	counters *syncmap.Map[Category, *categoryCounters]
}

// NewStatistics creates an empty Statistics.
func NewStatistics() *Statistics {
	return &Statistics{counters: syncmap.New[Category, *categoryCounters]()}
}

func (s *Statistics) category(category Category) *categoryCounters {
	if counters, ok := s.counters.Get(category); ok {
		return counters
	}
	counters, _ := s.counters.SetIfAbsent(category, &categoryCounters{})
	return counters
}

func (s *Statistics) recordHit(category Category)     { s.category(category).hits.Add(1) }
func (s *Statistics) recordMiss(category Category)    { s.category(category).misses.Add(1) }
func (s *Statistics) recordSet(category Category)     { s.category(category).sets.Add(1) }
func (s *Statistics) recordExpiry(category Category)  { s.category(category).expiries.Add(1) }
func (s *Statistics) recordError(category Category)   { s.category(category).errors.Add(1) }
func (s *Statistics) recordInvalidations(category Category, count uint64) {
	s.category(category).invalidations.Add(count)
}

// Snapshot returns the current counters for every touched category.
func (s *Statistics) Snapshot() map[Category]CategoryStats {
	out := make(map[Category]CategoryStats, s.counters.Len())
	s.counters.Range(func(category Category, counters *categoryCounters) bool {
		out[category] = counters.snapshot()
		return true
	})
	return out
}

// Category returns the counters for one category.
func (s *Statistics) Category(category Category) CategoryStats {
	return s.category(category).snapshot()
}
