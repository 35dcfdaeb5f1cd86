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
	"time"

	"github.com/hfritz34/prestige-native-sub000/ratelimit"
)

// Category identifies a logical grouping of cached data sharing one TTL and
// one invalidation scope.
type Category string

const (
	// CategoryRatings holds user rating responses.
	CategoryRatings Category = "ratings"
	// CategoryTrackMetadata holds track, album and artist metadata.
	CategoryTrackMetadata Category = "track-metadata"
	// CategoryRatingCategories holds the rating category definitions.
	CategoryRatingCategories Category = "rating-categories"
	// CategoryUserProfile holds the signed-in user's profile.
	CategoryUserProfile Category = "user-profile"
	// CategorySearchResults holds search responses.
	CategorySearchResults Category = "search-results"
	// CategoryFriends holds the user's friend list.
	CategoryFriends Category = "friends"
	// CategoryFriendProfiles holds friend profile responses.
	CategoryFriendProfiles Category = "friend-profiles"
)

// CategoryDescriptor maps a category to its TTL and key namespace.
// Descriptors are read-only after Config construction.
type CategoryDescriptor struct {
	// ID is the category identifier.
	ID Category
	// DisplayName is the human-readable name used in diagnostics and
	// error states.
	DisplayName string
	// KeyPrefix namespaces every key cached under the category.
	KeyPrefix string
	// TTL is how long entries in the category stay fresh.
	TTL time.Duration
	// RateCategory is the API budget consumed when a miss in this
	// category triggers a network fetch. Empty means unlimited.
	RateCategory ratelimit.Category
}

// DefaultCategories returns the stock category table.
func DefaultCategories() []CategoryDescriptor {
	return []CategoryDescriptor{
		{ID: CategoryRatings, DisplayName: "Ratings", KeyPrefix: "rt", TTL: 30 * time.Minute, RateCategory: ratelimit.CategoryRating},
		{ID: CategoryTrackMetadata, DisplayName: "Track Metadata", KeyPrefix: "tm", TTL: 24 * time.Hour, RateCategory: ratelimit.CategoryMetadata},
		{ID: CategoryRatingCategories, DisplayName: "Rating Categories", KeyPrefix: "rc", TTL: 48 * time.Hour, RateCategory: ratelimit.CategoryMetadata},
		{ID: CategoryUserProfile, DisplayName: "User Profile", KeyPrefix: "up", TTL: time.Hour, RateCategory: ratelimit.CategorySocial},
		{ID: CategorySearchResults, DisplayName: "Search Results", KeyPrefix: "sr", TTL: 15 * time.Minute, RateCategory: ratelimit.CategorySearch},
		{ID: CategoryFriends, DisplayName: "Friends", KeyPrefix: "fr", TTL: 30 * time.Minute, RateCategory: ratelimit.CategorySocial},
		{ID: CategoryFriendProfiles, DisplayName: "Friend Profiles", KeyPrefix: "fp", TTL: time.Hour, RateCategory: ratelimit.CategorySocial},
	}
}

// registry resolves categories to their descriptors. It is built once by
// NewConfig and read-only afterwards.
type registry struct {
	descriptors map[Category]CategoryDescriptor
}

func newRegistry(descriptors []CategoryDescriptor) *registry {
	table := make(map[Category]CategoryDescriptor, len(descriptors))
	for _, descriptor := range descriptors {
		table[descriptor.ID] = descriptor
	}
	return &registry{descriptors: table}
}

func (r *registry) lookup(category Category) (CategoryDescriptor, bool) {
	descriptor, ok := r.descriptors[category]
	return descriptor, ok
}

func (r *registry) all() []CategoryDescriptor {
	out := make([]CategoryDescriptor, 0, len(r.descriptors))
	for _, descriptor := range r.descriptors {
		out = append(out, descriptor)
	}
	return out
}

// cacheKey derives the namespaced store key for a caller key. Uniqueness
// across categories is structural; collisions within a category are the
// caller's responsibility.
func (d CategoryDescriptor) cacheKey(key string) string {
	return d.KeyPrefix + ":" + key
}
