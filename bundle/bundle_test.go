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

package bundle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	prestige "github.com/hfritz34/prestige-native-sub000"
)

type stubSource struct {
	name    string
	items   []Item
	fail    atomic.Bool
	fetches atomic.Int64
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchItems(context.Context, string, RangeKey) ([]Item, error) {
	s.fetches.Add(1)
	if s.fail.Load() {
		return nil, errors.New(s.name + " unavailable")
	}
	return s.items, nil
}

func threeSources() (*stubSource, *stubSource, *stubSource) {
	tracks := &stubSource{name: "tracks", items: []Item{
		{ID: "t1", Name: "Track One", Score: 90, ListenSeconds: 3600},
		{ID: "t2", Name: "Track Two", Score: 70, ListenSeconds: 1200},
	}}
	albums := &stubSource{name: "albums", items: []Item{
		{ID: "a1", Name: "Album One", Score: 90, ListenSeconds: 7200},
	}}
	artists := &stubSource{name: "artists", items: []Item{
		{ID: "ar1", Name: "Artist One", Score: 95, ListenSeconds: 9000},
	}}
	return tracks, albums, artists
}

func TestLoadAggregatesAndRanks(t *testing.T) {
	tracks, albums, artists := threeSources()
	coordinator, err := NewCoordinator([]Source{tracks, albums, artists})
	require.NoError(t, err)

	bundle, err := coordinator.Load(context.Background(), "user1", RangeMonthly, false)
	require.NoError(t, err)
	require.Equal(t, "user1", bundle.OwnerID)
	require.Equal(t, RangeMonthly, bundle.Range)

	// score descending, then listen seconds descending
	ids := make([]string, 0, len(bundle.Items))
	for _, item := range bundle.Items {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []string{"ar1", "a1", "t1", "t2"}, ids)
}

func TestLoadCachesPerRange(t *testing.T) {
	tracks, albums, artists := threeSources()
	coordinator, err := NewCoordinator([]Source{tracks, albums, artists})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = coordinator.Load(ctx, "user1", RangeMonthly, false)
	require.NoError(t, err)
	_, err = coordinator.Load(ctx, "user1", RangeMonthly, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), tracks.fetches.Load())

	// a different range is a separate entry and loads again
	_, err = coordinator.Load(ctx, "user1", RangeAllTime, false)
	require.NoError(t, err)
	require.Equal(t, int64(2), tracks.fetches.Load())
}

func TestLoadForceBypassesCache(t *testing.T) {
	tracks, albums, artists := threeSources()
	coordinator, err := NewCoordinator([]Source{tracks, albums, artists})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = coordinator.Load(ctx, "user1", RangeMonthly, false)
	require.NoError(t, err)
	_, err = coordinator.Load(ctx, "user1", RangeMonthly, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), tracks.fetches.Load())
}

func TestLoadTruncatesToDisplayLimit(t *testing.T) {
	big := &stubSource{name: "tracks"}
	for i := 0; i < 100; i++ {
		big.items = append(big.items, Item{ID: string(rune('a' + i%26)), Score: int64(i)})
	}
	coordinator, err := NewCoordinator([]Source{big}, WithDisplayLimit(10))
	require.NoError(t, err)

	bundle, err := coordinator.Load(context.Background(), "user1", RangeRecent, false)
	require.NoError(t, err)
	require.Len(t, bundle.Items, 10)
	require.Equal(t, int64(99), bundle.Items[0].Score)
}

func TestPartialFailureCachesNothing(t *testing.T) {
	tracks, albums, artists := threeSources()
	artists.fail.Store(true)
	coordinator, err := NewCoordinator([]Source{tracks, albums, artists})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = coordinator.Load(ctx, "user1", RangeMonthly, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "artists")

	_, err = coordinator.Cached("user1", RangeMonthly)
	require.ErrorIs(t, err, prestige.ErrNotFound)

	// a retry re-attempts every sub-fetch
	artists.fail.Store(false)
	bundle, err := coordinator.Load(ctx, "user1", RangeMonthly, false)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Items)
	require.GreaterOrEqual(t, tracks.fetches.Load(), int64(2))
}

func TestPerRangeTTL(t *testing.T) {
	now := time.Now()
	tracks, albums, artists := threeSources()
	coordinator, err := NewCoordinator(
		[]Source{tracks, albums, artists},
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = coordinator.Load(ctx, "user1", RangeRecent, false)
	require.NoError(t, err)
	_, err = coordinator.Load(ctx, "user1", RangeAllTime, false)
	require.NoError(t, err)

	// ten minutes later the short-lived recent view expired, the all-time
	// view did not
	now = now.Add(10 * time.Minute)
	_, err = coordinator.Cached("user1", RangeRecent)
	require.ErrorIs(t, err, prestige.ErrNotFound)
	_, err = coordinator.Cached("user1", RangeAllTime)
	require.NoError(t, err)
}

func TestUnknownRange(t *testing.T) {
	tracks, _, _ := threeSources()
	coordinator, err := NewCoordinator([]Source{tracks})
	require.NoError(t, err)

	_, err = coordinator.Load(context.Background(), "user1", "bogus", false)
	require.Error(t, err)
}

func TestInvalidateOwner(t *testing.T) {
	tracks, albums, artists := threeSources()
	coordinator, err := NewCoordinator([]Source{tracks, albums, artists})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = coordinator.Load(ctx, "user1", RangeMonthly, false)
	require.NoError(t, err)
	_, err = coordinator.Load(ctx, "user2", RangeMonthly, false)
	require.NoError(t, err)

	coordinator.InvalidateOwner("user1")

	_, err = coordinator.Cached("user1", RangeMonthly)
	require.ErrorIs(t, err, prestige.ErrNotFound)
	_, err = coordinator.Cached("user2", RangeMonthly)
	require.NoError(t, err)
}

func TestNewCoordinatorRequiresSources(t *testing.T) {
	_, err := NewCoordinator(nil)
	require.Error(t, err)
}
