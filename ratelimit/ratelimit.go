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

// Package ratelimit implements a sliding-window request limiter gating
// outbound API calls per category.
//
// The limiter is advisory and local-only: it keeps the client from
// generating rate-limit violations but performs no retry or backoff on
// rejections received from the network, which remain the transport layer's
// concern. Configured limits should sit slightly below the true backend
// budget as a safety margin.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Category identifies an API family sharing one request budget.
type Category string

const (
	// CategoryRating covers rating submissions and reads.
	CategoryRating Category = "rating"
	// CategoryMetadata covers track, album and artist metadata lookups.
	CategoryMetadata Category = "metadata"
	// CategorySearch covers search queries.
	CategorySearch Category = "search"
	// CategorySocial covers friend and profile lookups.
	CategorySocial Category = "social"
)

// WindowConfig bounds one category to maxRequests per window.
type WindowConfig struct {
	// Category is the API family this window gates.
	Category Category
	// MaxRequests is the number of requests admitted per window.
	MaxRequests int
	// Window is the trailing interval requests are counted over.
	Window time.Duration
}

// DefaultWindows returns the stock limit table. Limits sit below the true
// backend budgets, e.g. 25 of a true 30/min rating budget.
func DefaultWindows() []WindowConfig {
	return []WindowConfig{
		{Category: CategoryRating, MaxRequests: 25, Window: time.Minute},
		{Category: CategoryMetadata, MaxRequests: 50, Window: time.Minute},
		{Category: CategorySearch, MaxRequests: 30, Window: time.Minute},
		{Category: CategorySocial, MaxRequests: 40, Window: time.Minute},
	}
}

// Usage reports the state of one window at a point in time.
type Usage struct {
	// Current is the number of requests recorded inside the window.
	Current int
	// Max is the window's admission cap.
	Max int
	// ResetIn is how long until the oldest recorded request leaves the
	// window. Zero when the window is empty.
	ResetIn time.Duration
}

type window struct {
	maxRequests int
	duration    time.Duration
	timestamps  []time.Time
}

// prune drops timestamps older than now minus the window duration.
// Pruning is lazy: it runs on every check rather than on a timer.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.duration)
	idx := 0
	for idx < len(w.timestamps) && !w.timestamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[idx:]...)
	}
}

func (w *window) resetIn(now time.Time) time.Duration {
	if len(w.timestamps) == 0 {
		return 0
	}
	remaining := w.timestamps[0].Add(w.duration).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limiter gates outbound requests per category using sliding windows.
// The zero value is not usable; use New.
type Limiter struct {
	mu      sync.Mutex
	windows map[Category]*window
	clock   func() time.Time
}

// New creates a Limiter from the given window table. Categories absent from
// the table are not limited.
func New(configs ...WindowConfig) *Limiter {
	limiter := &Limiter{
		windows: make(map[Category]*window, len(configs)),
		clock:   time.Now,
	}
	for _, cfg := range configs {
		if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
			continue
		}
		limiter.windows[cfg.Category] = &window{
			maxRequests: cfg.MaxRequests,
			duration:    cfg.Window,
		}
	}
	return limiter
}

// SetClock overrides the time source. Intended for tests.
func (l *Limiter) SetClock(clock func() time.Time) {
	l.mu.Lock()
	l.clock = clock
	l.mu.Unlock()
}

// Allow reports whether a request in the category may be issued now and, if
// so, records it as consumed. Unlimited categories are always admitted.
func (l *Limiter) Allow(category Category) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.windows[category]
	if !ok {
		return true
	}

	now := l.clock()
	win.prune(now)
	if len(win.timestamps) >= win.maxRequests {
		return false
	}
	win.timestamps = append(win.timestamps, now)
	return true
}

// Wait blocks until a slot frees in the category's window, records the
// request, and returns. It returns the context error when ctx ends first.
func (l *Limiter) Wait(ctx context.Context, category Category) error {
	for {
		allowed, retryIn := l.allowOrRetry(category)
		if allowed {
			return nil
		}

		timer := time.NewTimer(retryIn)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Usage returns the current window state for the category. Unlimited
// categories report a zero Max.
func (l *Limiter) Usage(category Category) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.windows[category]
	if !ok {
		return Usage{}
	}

	now := l.clock()
	win.prune(now)
	return Usage{
		Current: len(win.timestamps),
		Max:     win.maxRequests,
		ResetIn: win.resetIn(now),
	}
}

func (l *Limiter) allowOrRetry(category Category) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.windows[category]
	if !ok {
		return true, 0
	}

	now := l.clock()
	win.prune(now)
	if len(win.timestamps) < win.maxRequests {
		win.timestamps = append(win.timestamps, now)
		return true, 0
	}

	retryIn := win.resetIn(now)
	if retryIn <= 0 {
		retryIn = time.Millisecond
	}
	return false, retryIn
}
