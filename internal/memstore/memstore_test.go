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

package memstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetThenGet(t *testing.T) {
	store := New(10, 1<<20)
	store.Set("k", []byte("v"), time.Minute)

	value, outcome := store.Get("k")
	require.Equal(t, Hit, outcome)
	require.Equal(t, []byte("v"), value)
}

func TestGetMiss(t *testing.T) {
	store := New(10, 1<<20)
	value, outcome := store.Get("absent")
	require.Equal(t, Miss, outcome)
	require.Nil(t, value)
}

func TestLazyExpiry(t *testing.T) {
	now := time.Now()
	store := New(10, 1<<20)
	store.SetClock(func() time.Time { return now })

	store.Set("k", []byte("v"), time.Minute)

	now = now.Add(time.Minute + time.Second)
	value, outcome := store.Get("k")
	require.Equal(t, Expired, outcome)
	require.Nil(t, value)

	// the expired entry is gone, not resurrectable
	_, outcome = store.Get("k")
	require.Equal(t, Miss, outcome)
	require.Zero(t, store.Len())
}

func TestZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	store := New(10, 1<<20)
	store.SetClock(func() time.Time { return now })

	store.Set("k", []byte("v"), 0)
	now = now.Add(365 * 24 * time.Hour)

	_, outcome := store.Get("k")
	require.Equal(t, Hit, outcome)
}

func TestEntryCountCap(t *testing.T) {
	store := New(3, 1<<20)
	for i := 0; i < 5; i++ {
		store.Set(fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}

	require.Equal(t, 3, store.Len())
	require.Equal(t, uint64(2), store.Evictions())

	// most recently written keys survive
	_, outcome := store.Get("k4")
	require.Equal(t, Hit, outcome)
	_, outcome = store.Get("k0")
	require.Equal(t, Miss, outcome)
}

func TestByteCapEvictsColdEntries(t *testing.T) {
	store := New(100, 40)
	store.Set("a", []byte("0123456789"), time.Minute)
	store.Set("b", []byte("0123456789"), time.Minute)
	store.Set("c", []byte("0123456789"), time.Minute)

	// touch a so b becomes the coldest entry
	_, outcome := store.Get("a")
	require.Equal(t, Hit, outcome)

	store.Set("d", []byte("0123456789"), time.Minute)
	require.LessOrEqual(t, store.Bytes(), int64(40))

	_, outcome = store.Get("b")
	require.Equal(t, Miss, outcome)
	_, outcome = store.Get("a")
	require.Equal(t, Hit, outcome)
}

func TestOverwriteReplacesValue(t *testing.T) {
	store := New(10, 1<<20)
	store.Set("k", []byte("old"), time.Minute)
	store.Set("k", []byte("new"), time.Minute)

	value, outcome := store.Get("k")
	require.Equal(t, Hit, outcome)
	require.Equal(t, []byte("new"), value)
	require.Equal(t, 1, store.Len())
}

func TestRemovePrefix(t *testing.T) {
	store := New(10, 1<<20)
	store.Set("rt:1", []byte("a"), time.Minute)
	store.Set("rt:2", []byte("b"), time.Minute)
	store.Set("tm:1", []byte("c"), time.Minute)

	removed := store.RemovePrefix("rt:")
	require.Equal(t, 2, removed)
	require.Equal(t, 1, store.Len())

	_, outcome := store.Get("tm:1")
	require.Equal(t, Hit, outcome)
}

func TestRemoveMatch(t *testing.T) {
	store := New(10, 1<<20)
	store.Set("rt:user1:track1", []byte("a"), time.Minute)
	store.Set("rt:user1:track2", []byte("b"), time.Minute)
	store.Set("rt:user2:track1", []byte("c"), time.Minute)

	removed := store.RemoveMatch("rt:", "user1")
	require.Equal(t, 2, removed)

	_, outcome := store.Get("rt:user2:track1")
	require.Equal(t, Hit, outcome)
}

func TestKeys(t *testing.T) {
	store := New(10, 1<<20)
	store.Set("rt:1", []byte("a"), time.Minute)
	store.Set("tm:1", []byte("b"), time.Minute)

	keys := store.Keys("rt:")
	require.Equal(t, []string{"rt:1"}, keys)
}

func TestSweepRemovesExpired(t *testing.T) {
	now := time.Now()
	store := New(10, 1<<20)
	store.SetClock(func() time.Time { return now })

	store.Set("short", []byte("a"), time.Minute)
	store.Set("long", []byte("b"), time.Hour)

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 1, store.Len())
}

func TestStoredAt(t *testing.T) {
	now := time.Now()
	store := New(10, 1<<20)
	store.SetClock(func() time.Time { return now })

	store.Set("k", []byte("v"), time.Minute)
	storedAt, ok := store.StoredAt("k")
	require.True(t, ok)
	require.Equal(t, now, storedAt)

	_, ok = store.StoredAt("absent")
	require.False(t, ok)
}

func TestClear(t *testing.T) {
	store := New(10, 1<<20)
	store.Set("k", []byte("v"), time.Minute)
	store.Clear()
	require.Zero(t, store.Len())
	require.Zero(t, store.Bytes())
}
