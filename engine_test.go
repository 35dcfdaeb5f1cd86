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
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfritz34/prestige-native-sub000/log"
	"github.com/hfritz34/prestige-native-sub000/ratelimit"
)

func startEngine(t *testing.T, opts ...Option) (Engine, *MockDataSource) {
	t.Helper()

	source := NewMockDataSource()
	opts = append([]Option{
		WithLogger(log.DiscardLogger),
		WithSweepInterval(0),
	}, opts...)

	engine, err := NewEngine(NewConfig(source, opts...))
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(func() { _ = engine.Stop(context.Background()) })
	return engine, source
}

func TestEngineReadThrough(t *testing.T) {
	engine, source := startEngine(t)
	ctx := context.Background()

	result, err := engine.Get(ctx, CategoryRatings, "track1")
	require.NoError(t, err)
	assert.Equal(t, SourceFetched, result.Source)
	assert.Equal(t, []byte("payload:ratings:track1"), result.Value)

	result, err = engine.Get(ctx, CategoryRatings, "track1")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, result.Source)

	assert.Equal(t, 1, source.Fetches(CategoryRatings, "track1"))
}

func TestEngineLifecycle(t *testing.T) {
	source := NewMockDataSource()
	engine, err := NewEngine(NewConfig(source, WithLogger(log.DiscardLogger)))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = engine.Get(ctx, CategoryRatings, "track1")
	require.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, engine.Start(ctx))
	require.ErrorIs(t, engine.Start(ctx), ErrAlreadyStarted)

	require.NoError(t, engine.Stop(ctx))
	require.NoError(t, engine.Stop(ctx))

	_, err = engine.Get(ctx, CategoryRatings, "track1")
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	_, err := NewEngine(NewConfig(nil))
	require.Error(t, err)
}

func TestEngineUnknownCategory(t *testing.T) {
	engine, _ := startEngine(t)
	ctx := context.Background()

	_, err := engine.Get(ctx, "bogus", "k")
	require.ErrorIs(t, err, ErrUnknownCategory)
	require.ErrorIs(t, engine.Put(ctx, "bogus", "k", nil), ErrUnknownCategory)
	_, err = engine.Invalidate(ctx, "bogus")
	require.ErrorIs(t, err, ErrUnknownCategory)
	require.ErrorIs(t, engine.WaitForBudget(ctx, "bogus"), ErrUnknownCategory)
}

func TestEngineRateLimitsFetches(t *testing.T) {
	now := time.Now()
	engine, source := startEngine(t,
		WithClock(func() time.Time { return now }),
		WithRateWindows(ratelimit.WindowConfig{
			Category:    ratelimit.CategoryRating,
			MaxRequests: 25,
			Window:      time.Minute,
		}),
	)
	ctx := context.Background()

	// 25 distinct misses consume the whole budget
	for i := 0; i < 25; i++ {
		_, err := engine.Get(ctx, CategoryRatings, fmt.Sprintf("track%d", i))
		require.NoError(t, err)
	}

	_, err := engine.Get(ctx, CategoryRatings, "track25")
	require.ErrorIs(t, err, ErrRateLimited)

	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "Ratings", limited.Category)
	assert.Positive(t, limited.RetryIn)

	// the denied request never reached the data source
	assert.Equal(t, 0, source.Fetches(CategoryRatings, "track25"))

	// once the window slides past the oldest request, fetches resume
	now = now.Add(time.Minute + time.Second)
	_, err = engine.Get(ctx, CategoryRatings, "track25")
	require.NoError(t, err)
}

func TestEngineCacheHitsDoNotConsumeBudget(t *testing.T) {
	engine, _ := startEngine(t)
	ctx := context.Background()

	_, err := engine.Get(ctx, CategoryRatings, "track1")
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		result, err := engine.Get(ctx, CategoryRatings, "track1")
		require.NoError(t, err)
		require.Equal(t, SourceLocal, result.Source)
	}

	assert.Equal(t, 1, engine.RateUsage(CategoryRatings).Current)
}

func TestEngineSearchExpiryScenario(t *testing.T) {
	now := time.Now()
	engine, source := startEngine(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	// a search at minute zero fetches
	_, err := engine.Get(ctx, CategorySearchResults, "taylor swift")
	require.NoError(t, err)
	require.Equal(t, 1, source.Fetches(CategorySearchResults, "taylor swift"))

	// the same search 14 minutes later is a cache hit
	now = now.Add(14 * time.Minute)
	result, err := engine.Get(ctx, CategorySearchResults, "taylor swift")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, result.Source)
	require.Equal(t, 1, source.Fetches(CategorySearchResults, "taylor swift"))

	// two minutes later the 15 minute TTL has lapsed and a fetch recurs
	now = now.Add(2 * time.Minute)
	result, err = engine.Get(ctx, CategorySearchResults, "taylor swift")
	require.NoError(t, err)
	assert.Equal(t, SourceFetched, result.Source)
	require.Equal(t, 2, source.Fetches(CategorySearchResults, "taylor swift"))
}

func TestEngineFetchErrorPropagates(t *testing.T) {
	engine, source := startEngine(t)
	ctx := context.Background()

	boom := errors.New("backend down")
	source.FailWith(boom)

	_, err := engine.Get(ctx, CategoryRatings, "track1")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), engine.Stats()[CategoryRatings].Errors)

	// nothing was cached for the failed fetch
	_, err = engine.GetCached(ctx, CategoryRatings, "track1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnginePutAndGetCached(t *testing.T) {
	engine, source := startEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Put(ctx, CategoryUserProfile, "me", []byte("profile")))

	value, err := engine.GetCached(ctx, CategoryUserProfile, "me")
	require.NoError(t, err)
	assert.Equal(t, []byte("profile"), value)

	// a read-through Get is served locally, no fetch happens
	result, err := engine.Get(ctx, CategoryUserProfile, "me")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, result.Source)
	assert.Zero(t, source.TotalFetches())
}

func TestEngineGetCachedNeverFetches(t *testing.T) {
	engine, source := startEngine(t)

	_, err := engine.GetCached(context.Background(), CategoryRatings, "absent")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, source.TotalFetches())
}

func TestEngineInvalidate(t *testing.T) {
	engine, source := startEngine(t)
	ctx := context.Background()

	_, err := engine.Get(ctx, CategoryRatings, "track1")
	require.NoError(t, err)
	_, err = engine.Get(ctx, CategoryRatings, "track2")
	require.NoError(t, err)

	removed, err := engine.Invalidate(ctx, CategoryRatings)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// the next read fetches again
	result, err := engine.Get(ctx, CategoryRatings, "track1")
	require.NoError(t, err)
	assert.Equal(t, SourceFetched, result.Source)
	assert.Equal(t, 2, source.Fetches(CategoryRatings, "track1"))
}

func TestEngineInvalidatePattern(t *testing.T) {
	engine, _ := startEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Put(ctx, CategoryRatings, "user1:track1", []byte("a")))
	require.NoError(t, engine.Put(ctx, CategoryRatings, "user2:track1", []byte("b")))

	removed, err := engine.Invalidate(ctx, CategoryRatings, "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = engine.GetCached(ctx, CategoryRatings, "user2:track1")
	require.NoError(t, err)
}

func TestEngineStats(t *testing.T) {
	engine, _ := startEngine(t)
	ctx := context.Background()

	_, _ = engine.Get(ctx, CategoryRatings, "track1")
	_, _ = engine.Get(ctx, CategoryRatings, "track1")

	stats := engine.Stats()[CategoryRatings]
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
}

func TestEngineConcurrentGetsCoalesce(t *testing.T) {
	engine, source := startEngine(t)
	ctx := context.Background()

	const callers = 20
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := engine.Get(ctx, CategoryTrackMetadata, "album1")
			errs <- err
		}()
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}

	// concurrent callers coalesce onto few fetches, never one each
	assert.LessOrEqual(t, source.Fetches(CategoryTrackMetadata, "album1"), 3)
	assert.LessOrEqual(t, engine.RateUsage(CategoryTrackMetadata).Current, 3)
}

func TestEngineWaitForBudget(t *testing.T) {
	engine, _ := startEngine(t, WithRateWindows(ratelimit.WindowConfig{
		Category:    ratelimit.CategoryRating,
		MaxRequests: 1,
		Window:      50 * time.Millisecond,
	}))
	ctx := context.Background()

	require.NoError(t, engine.WaitForBudget(ctx, CategoryRatings))

	start := time.Now()
	require.NoError(t, engine.WaitForBudget(ctx, CategoryRatings))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestEngineRateUsageUnknownCategory(t *testing.T) {
	engine, _ := startEngine(t)
	assert.Zero(t, engine.RateUsage("bogus").Max)
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{Category: "Ratings", RetryIn: 12 * time.Second}
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "Ratings")
	assert.Contains(t, err.Error(), "12s")
}
