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

// Package memstore implements the bounded TTL key/value store underlying
// every cache tier in the module.
//
// The store is capped by both an entry-count limit and a cumulative byte
// budget. When either cap is exceeded, entries are evicted starting from the
// least recently used one. Eviction order is approximate: a Get bumps
// recency, but no strict LRU ordering is guaranteed across concurrent
// readers. Expiry is lazy: a Get on a stale entry deletes it and reports a
// miss. Sweep may additionally run periodically to bound memory held by
// expired-but-unread entries.
package memstore

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// GetOutcome describes what a Get observed.
type GetOutcome int

const (
	// Miss means the key was absent.
	Miss GetOutcome = iota
	// Hit means the key was present and fresh.
	Hit
	// Expired means the key was present but stale and has been removed.
	Expired
)

type entry struct {
	key       string
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
	element   *list.Element
}

func (e *entry) size() int64 {
	return int64(len(e.key) + len(e.value))
}

// Store is a bounded in-memory TTL store. All methods are safe for
// concurrent use.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	recency    *list.List
	maxEntries int
	maxBytes   int64
	bytes      int64
	evictions  uint64
	clock      func() time.Time
}

// New creates a Store bounded by maxEntries and maxBytes. A non-positive
// limit disables that bound.
func New(maxEntries int, maxBytes int64) *Store {
	return &Store{
		entries:    make(map[string]*entry),
		recency:    list.New(),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		clock:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	s.clock = clock
	s.mu.Unlock()
}

// Get returns the value stored under key along with what was observed.
// A stale entry is removed as a side effect and reported as Expired.
func (s *Store) Get(key string) ([]byte, GetOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.entries[key]
	if !ok {
		return nil, Miss
	}

	if s.expired(item) {
		s.remove(item)
		return nil, Expired
	}

	s.recency.MoveToFront(item.element)
	return item.value, Hit
}

// StoredAt returns when the fresh entry under key was written.
func (s *Store) StoredAt(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.entries[key]
	if !ok || s.expired(item) {
		return time.Time{}, false
	}
	return item.storedAt, true
}

// Set stores value under key with the given TTL. A zero TTL stores the
// entry without expiry. Setting over an existing key replaces it.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if existing, ok := s.entries[key]; ok {
		s.bytes -= existing.size()
		existing.value = value
		existing.storedAt = now
		existing.expiresAt = expiresAt
		s.bytes += existing.size()
		s.recency.MoveToFront(existing.element)
		s.enforceCaps()
		return
	}

	item := &entry{
		key:       key,
		value:     value,
		storedAt:  now,
		expiresAt: expiresAt,
	}
	item.element = s.recency.PushFront(item)
	s.entries[key] = item
	s.bytes += item.size()
	s.enforceCaps()
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.entries[key]; ok {
		s.remove(item)
	}
}

// RemovePrefix deletes every key starting with prefix and returns how many
// entries were removed.
func (s *Store) RemovePrefix(prefix string) int {
	return s.removeWhere(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// RemoveMatch deletes every key starting with prefix and containing pattern
// after the prefix. It returns how many entries were removed.
func (s *Store) RemoveMatch(prefix, pattern string) int {
	return s.removeWhere(func(key string) bool {
		return strings.HasPrefix(key, prefix) && strings.Contains(key[len(prefix):], pattern)
	})
}

// Keys returns every fresh key starting with prefix.
func (s *Store) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0)
	for key, item := range s.entries {
		if strings.HasPrefix(key, prefix) && !s.expired(item) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.recency.Init()
	s.bytes = 0
}

// Len returns the number of stored entries, expired ones included until
// they are read or swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Bytes returns the cumulative size of stored keys and values.
func (s *Store) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Evictions returns the number of capacity evictions since creation.
func (s *Store) Evictions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

// Sweep removes every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, item := range s.entries {
		if s.expired(item) {
			s.remove(item)
			removed++
		}
	}
	return removed
}

func (s *Store) removeWhere(match func(key string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, item := range s.entries {
		if match(key) {
			s.remove(item)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(item *entry) bool {
	return !item.expiresAt.IsZero() && s.clock().After(item.expiresAt)
}

func (s *Store) remove(item *entry) {
	delete(s.entries, item.key)
	s.recency.Remove(item.element)
	s.bytes -= item.size()
}

func (s *Store) enforceCaps() {
	for s.overCap() {
		oldest := s.recency.Back()
		if oldest == nil {
			return
		}
		s.remove(oldest.Value.(*entry))
		s.evictions++
	}
}

func (s *Store) overCap() bool {
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		return true
	}
	if s.maxBytes > 0 && s.bytes > s.maxBytes {
		return true
	}
	return false
}
