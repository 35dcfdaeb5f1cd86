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

// Package prestige implements the layered response-caching and
// request-throttling core of the Prestige client.
//
// Reads flow local tier -> remote tier -> network. A miss in both tiers
// triggers a coalesced fetch against the configured DataSource, gated by a
// per-category sliding-window rate limiter; the fetched value then
// populates both tiers. The remote tier is an optimization, never a source
// of truth, and the engine functions identically when it is disabled or
// unreachable.
package prestige

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hfritz34/prestige-native-sub000/ratelimit"
)

// Engine is the caching core's public surface. It supports cache-or-fetch
// reads, direct writes, category invalidation, and observation of hit-rate
// statistics and rate budget usage. Each method accepts a context.Context
// to allow for cancellation, timeouts, and passing request-scoped values.
type Engine interface {
	// Get returns the value for key in the given category, consulting the
	// local tier, then the remote tier, then the data source. The result
	// carries the value's provenance.
	//
	// A fetch triggered here first consumes budget from the category's
	// rate window; when the budget is exhausted Get fails with an error
	// matching ErrRateLimited that carries the estimated wait.
	Get(ctx context.Context, category Category, key string) (*Result, error)

	// GetCached returns the locally cached value for key without ever
	// fetching. It fails with ErrNotFound on miss.
	GetCached(ctx context.Context, category Category, key string) ([]byte, error)

	// Put stores value under key in both cache tiers using the category's
	// TTL.
	Put(ctx context.Context, category Category, key string, value []byte) error

	// Invalidate removes cached entries under the category. With no
	// patterns the whole category is cleared; with patterns only matching
	// keys are removed. It returns the number of local entries removed.
	Invalidate(ctx context.Context, category Category, patterns ...string) (int, error)

	// WaitForBudget blocks until the category's rate window admits a
	// request, consuming the slot. Use it to pace writes that must not be
	// dropped on budget exhaustion.
	WaitForBudget(ctx context.Context, category Category) error

	// RateUsage reports the current window state for the category's API
	// budget.
	RateUsage(category Category) ratelimit.Usage

	// Stats returns a snapshot of the per-category cache counters.
	Stats() map[Category]CategoryStats

	// Start brings up the cache tiers, connects the remote tier when
	// configured, and launches the background expiry sweep.
	Start(ctx context.Context) error

	// Stop halts background work and releases the remote tier connection.
	Stop(ctx context.Context) error
}

type engine struct {
	config    *Config
	source    DataSource
	local     *ResponseCache
	remote    *RemoteCache
	coalescer *coalescer
	limiter   *ratelimit.Limiter
	registry  *registry
	inst      *instrumentation

	started  atomic.Bool
	stopSign chan struct{}
}

var _ Engine = (*engine)(nil)

// NewEngine creates a caching engine from the given configuration.
func NewEngine(config *Config) (Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	local := NewResponseCache(config.Categories(), config.MaxEntries(), config.MaxBytes())
	local.setClock(config.Clock())

	limiter := ratelimit.New(config.RateWindows()...)
	limiter.SetClock(config.Clock())

	return &engine{
		config:    config,
		source:    config.Protection().apply(config.DataSource()),
		local:     local,
		remote:    NewRemoteCache(config.Remote(), config.Logger()),
		coalescer: newCoalescer(config.CoalesceWait(), config.Clock()),
		limiter:   limiter,
		registry:  newRegistry(config.Categories()),
		inst:      newInstrumentation(config),
	}, nil
}

// Start brings up the cache tiers and background sweep.
func (e *engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	e.stopSign = make(chan struct{})
	e.remote.Connect(ctx)

	if interval := e.config.SweepInterval(); interval > 0 {
		go e.sweepLoop(interval)
	}

	e.config.Logger().Infof("prestige cache engine started: categories=%d, remote=%t",
		len(e.config.Categories()), e.remote.Enabled())
	return nil
}

// Stop halts background work and releases the remote tier connection.
func (e *engine) Stop(ctx context.Context) error {
	if !e.started.CompareAndSwap(true, false) {
		return nil
	}

	close(e.stopSign)
	if err := e.remote.Close(); err != nil {
		return fmt.Errorf("failed to close remote tier: %w", err)
	}

	e.config.Logger().Info("prestige cache engine stopped")
	return nil
}

// Get returns the value for key, consulting local tier, remote tier, then
// the data source.
func (e *engine) Get(ctx context.Context, category Category, key string) (result *Result, err error) {
	if !e.started.Load() {
		return nil, ErrNotStarted
	}

	descriptor, ok := e.registry.lookup(category)
	if !ok {
		return nil, ErrUnknownCategory
	}

	ctx, end := e.inst.start(ctx, "get", category)
	defer func() { end(err) }()

	if value, localErr := e.local.Get(category, key); localErr == nil {
		return &Result{Value: value, Source: SourceLocal}, nil
	}

	cacheKey := descriptor.cacheKey(key)
	if value, found := e.remote.Get(ctx, cacheKey); found {
		// Populate the local tier so the next read stays in-process.
		_ = e.local.Set(category, key, value)
		return &Result{Value: value, Source: SourceRemote}, nil
	}

	value, err := e.coalescer.fetchOnce(ctx, cacheKey,
		func(ctx context.Context) ([]byte, error) {
			return e.fetch(ctx, descriptor, key)
		},
		func() ([]byte, error) {
			return e.local.Get(category, key)
		},
	)
	if err != nil {
		return nil, err
	}
	return &Result{Value: value, Source: SourceFetched}, nil
}

// fetch is the coalesced producer path: budget check, network fetch, then
// population of both tiers.
func (e *engine) fetch(ctx context.Context, descriptor CategoryDescriptor, key string) ([]byte, error) {
	if descriptor.RateCategory != "" && !e.limiter.Allow(descriptor.RateCategory) {
		usage := e.limiter.Usage(descriptor.RateCategory)
		e.local.Stats().recordError(descriptor.ID)
		return nil, &RateLimitedError{Category: descriptor.DisplayName, RetryIn: usage.ResetIn}
	}

	e.inst.recordFetch(ctx, descriptor.ID)
	value, err := e.source.Fetch(ctx, descriptor.ID, key)
	if err != nil {
		e.local.Stats().recordError(descriptor.ID)
		return nil, fmt.Errorf("fetch %s/%s failed: %w", descriptor.ID, key, err)
	}

	_ = e.local.Set(descriptor.ID, key, value)
	// Remote population is best-effort; a failure here never fails the
	// fetch.
	e.remote.Set(ctx, descriptor.cacheKey(key), value, descriptor.TTL)
	return value, nil
}

// GetCached returns the locally cached value for key without fetching.
func (e *engine) GetCached(ctx context.Context, category Category, key string) (value []byte, err error) {
	if !e.started.Load() {
		return nil, ErrNotStarted
	}

	_, end := e.inst.start(ctx, "get_cached", category)
	defer func() { end(err) }()

	return e.local.Get(category, key)
}

// Put stores value under key in both tiers.
func (e *engine) Put(ctx context.Context, category Category, key string, value []byte) (err error) {
	if !e.started.Load() {
		return ErrNotStarted
	}

	descriptor, ok := e.registry.lookup(category)
	if !ok {
		return ErrUnknownCategory
	}

	ctx, end := e.inst.start(ctx, "put", category)
	defer func() { end(err) }()

	if err := e.local.Set(category, key, value); err != nil {
		return err
	}
	e.remote.Set(ctx, descriptor.cacheKey(key), value, descriptor.TTL)
	return nil
}

// Invalidate removes cached entries under the category from both tiers.
//
// The local tier enumerates keys, so pattern invalidation is precise. The
// remote tier deletes the whole category prefix even for patterned calls:
// over-deleting an optimization tier is safe, under-deleting would serve
// invalidated data back to the local tier.
func (e *engine) Invalidate(ctx context.Context, category Category, patterns ...string) (removed int, err error) {
	if !e.started.Load() {
		return 0, ErrNotStarted
	}

	descriptor, ok := e.registry.lookup(category)
	if !ok {
		return 0, ErrUnknownCategory
	}

	ctx, end := e.inst.start(ctx, "invalidate", category)
	defer func() { end(err) }()

	removed, err = e.local.Invalidate(category, patterns...)
	if err != nil {
		return 0, err
	}

	e.remote.DeletePattern(ctx, descriptor.KeyPrefix+":")
	return removed, nil
}

// WaitForBudget blocks until the category's rate window admits a request.
func (e *engine) WaitForBudget(ctx context.Context, category Category) error {
	descriptor, ok := e.registry.lookup(category)
	if !ok {
		return ErrUnknownCategory
	}
	if descriptor.RateCategory == "" {
		return nil
	}
	return e.limiter.Wait(ctx, descriptor.RateCategory)
}

// RateUsage reports the window state for the category's API budget.
func (e *engine) RateUsage(category Category) ratelimit.Usage {
	descriptor, ok := e.registry.lookup(category)
	if !ok || descriptor.RateCategory == "" {
		return ratelimit.Usage{}
	}
	return e.limiter.Usage(descriptor.RateCategory)
}

// Stats returns a snapshot of per-category cache counters.
func (e *engine) Stats() map[Category]CategoryStats {
	return e.local.Stats().Snapshot()
}

// RateLimits returns the window state of every configured rate category.
func (e *engine) RateLimits() map[ratelimit.Category]ratelimit.Usage {
	out := make(map[ratelimit.Category]ratelimit.Usage, len(e.config.RateWindows()))
	for _, window := range e.config.RateWindows() {
		out[window.Category] = e.limiter.Usage(window.Category)
	}
	return out
}

func (e *engine) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopSign:
			return
		case <-ticker.C:
			if removed := e.local.Sweep(); removed > 0 {
				e.config.Logger().Debugf("expiry sweep removed %d entries", removed)
			}
		}
	}
}
