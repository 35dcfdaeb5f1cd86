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
	"time"

	"github.com/hfritz34/prestige-native-sub000/internal/syncmap"
)

// inFlight is the shared future for one outstanding fetch. The initiating
// caller resolves it exactly once; waiters observe it through the done
// channel.
type inFlight struct {
	startedAt time.Time
	done      chan struct{}
	value     []byte
	err       error
}

func (f *inFlight) resolve(value []byte, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// coalescer guarantees at most one in-flight fetch per key. The first
// caller to register the key becomes the initiator: it runs the producer,
// observes its error, and resolves the shared future. Late callers wait on
// the future for a bounded duration; on producer failure or timeout they
// fall back to a cache read instead of receiving the error, on the
// principle that a transient empty result harms the UI less than amplified
// retries.
type coalescer struct {
	inflight *syncmap.Map[string, *inFlight]
	wait     time.Duration
	clock    func() time.Time
}

func newCoalescer(wait time.Duration, clock func() time.Time) *coalescer {
	return &coalescer{
		inflight: syncmap.New[string, *inFlight](),
		wait:     wait,
		clock:    clock,
	}
}

// fetchOnce runs produce at most once per key across concurrent callers.
// The initiator receives the producer's value or error; waiters receive
// the shared value on success, and fallback's result on producer failure
// or bounded-wait timeout.
//
// A cancelled waiter abandons the future without touching it; the flight
// keeps running for the callers that still depend on it. A cancelled
// initiator cancels the producer through ctx and clears the flight so a
// subsequent caller can retry.
func (c *coalescer) fetchOnce(
	ctx context.Context,
	key string,
	produce func(ctx context.Context) ([]byte, error),
	fallback func() ([]byte, error),
) ([]byte, error) {
	flight := &inFlight{
		startedAt: c.clock(),
		done:      make(chan struct{}),
	}

	existing, stored := c.inflight.SetIfAbsent(key, flight)
	if !stored {
		return c.await(ctx, existing, fallback)
	}

	value, err := produce(ctx)
	c.inflight.Delete(key)
	flight.resolve(value, err)
	return value, err
}

// await blocks on another caller's flight for at most the configured wait.
func (c *coalescer) await(ctx context.Context, flight *inFlight, fallback func() ([]byte, error)) ([]byte, error) {
	timer := time.NewTimer(c.wait)
	defer timer.Stop()

	select {
	case <-flight.done:
		if flight.err != nil {
			return fallback()
		}
		return flight.value, nil
	case <-timer.C:
		return fallback()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pending returns how many fetches are currently in flight.
func (c *coalescer) pending() int {
	return c.inflight.Len()
}
