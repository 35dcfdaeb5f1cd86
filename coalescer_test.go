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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchOnceSingleProducer(t *testing.T) {
	coalescer := newCoalescer(time.Second, time.Now)

	var produced atomic.Int64
	release := make(chan struct{})
	produce := func(context.Context) ([]byte, error) {
		produced.Add(1)
		<-release
		return []byte("value"), nil
	}
	fallback := func() ([]byte, error) { return nil, ErrNotFound }

	const callers = 10
	results := make([][]byte, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coalescer.fetchOnce(context.Background(), "k", produce, fallback)
		}(i)
	}

	// let every caller register before the producer finishes
	require.Eventually(t, func() bool {
		return produced.Load() == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), produced.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, []byte("value"), results[i])
	}
	require.Zero(t, coalescer.pending())
}

func TestFetchOnceDistinctKeysRunIndependently(t *testing.T) {
	coalescer := newCoalescer(time.Second, time.Now)

	var produced atomic.Int64
	produce := func(context.Context) ([]byte, error) {
		produced.Add(1)
		return []byte("v"), nil
	}
	fallback := func() ([]byte, error) { return nil, ErrNotFound }

	_, err := coalescer.fetchOnce(context.Background(), "a", produce, fallback)
	require.NoError(t, err)
	_, err = coalescer.fetchOnce(context.Background(), "b", produce, fallback)
	require.NoError(t, err)
	require.Equal(t, int64(2), produced.Load())
}

func TestFetchOnceErrorGoesToInitiatorOnly(t *testing.T) {
	coalescer := newCoalescer(time.Second, time.Now)

	boom := errors.New("backend down")
	release := make(chan struct{})
	started := make(chan struct{})
	produce := func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return nil, boom
	}
	fallback := func() ([]byte, error) { return []byte("stale"), nil }

	initiatorErr := make(chan error, 1)
	go func() {
		_, err := coalescer.fetchOnce(context.Background(), "k", produce, fallback)
		initiatorErr <- err
	}()
	<-started

	waiterDone := make(chan struct{})
	var waiterValue []byte
	var waiterErr error
	go func() {
		defer close(waiterDone)
		waiterValue, waiterErr = coalescer.fetchOnce(context.Background(), "k", produce, fallback)
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	require.ErrorIs(t, <-initiatorErr, boom)
	<-waiterDone
	// the waiter never sees the producer error, only the cache fallback
	require.NoError(t, waiterErr)
	require.Equal(t, []byte("stale"), waiterValue)
}

func TestFetchOnceWaiterTimesOutToFallback(t *testing.T) {
	coalescer := newCoalescer(20*time.Millisecond, time.Now)

	release := make(chan struct{})
	started := make(chan struct{})
	produce := func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return []byte("late"), nil
	}

	go func() {
		_, _ = coalescer.fetchOnce(context.Background(), "k", produce, func() ([]byte, error) {
			return nil, ErrNotFound
		})
	}()
	<-started

	value, err := coalescer.fetchOnce(context.Background(), "k", produce, func() ([]byte, error) {
		return []byte("fallback"), nil
	})
	require.NoError(t, err)
	require.Equal(t, []byte("fallback"), value)

	close(release)
}

func TestFetchOnceWaiterHonorsContext(t *testing.T) {
	coalescer := newCoalescer(time.Second, time.Now)

	release := make(chan struct{})
	started := make(chan struct{})
	produce := func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return []byte("v"), nil
	}
	fallback := func() ([]byte, error) { return nil, ErrNotFound }

	go func() {
		_, _ = coalescer.fetchOnce(context.Background(), "k", produce, fallback)
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := coalescer.fetchOnce(ctx, "k", produce, fallback)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestFetchOnceSequentialCallsEachProduce(t *testing.T) {
	coalescer := newCoalescer(time.Second, time.Now)

	var produced atomic.Int64
	produce := func(context.Context) ([]byte, error) {
		produced.Add(1)
		return []byte("v"), nil
	}
	fallback := func() ([]byte, error) { return nil, ErrNotFound }

	for i := 0; i < 3; i++ {
		_, err := coalescer.fetchOnce(context.Background(), "k", produce, fallback)
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), produced.Load())
}
