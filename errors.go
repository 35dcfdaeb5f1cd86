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
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a key is absent from every consulted tier.
	ErrNotFound = errors.New("prestige: not found")

	// ErrUnknownCategory is returned when an operation names a category the
	// registry does not know.
	ErrUnknownCategory = errors.New("prestige: unknown category")

	// ErrRateLimited is returned when the request budget for a category is
	// exhausted. Callers should wait or defer, never silently drop the
	// user's intent. Use errors.As with *RateLimitedError to read the
	// estimated wait.
	ErrRateLimited = errors.New("prestige: rate limited")

	// ErrDataSourceRateLimited is returned when the data source protection
	// rejects a fetch.
	ErrDataSourceRateLimited = errors.New("prestige: data source rate limited")

	// ErrDataSourceCircuitOpen is returned when the data source circuit
	// breaker is open.
	ErrDataSourceCircuitOpen = errors.New("prestige: data source circuit open")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("prestige: engine already started")

	// ErrNotStarted is returned when an operation runs before Start.
	ErrNotStarted = errors.New("prestige: engine not started")
)

// RateLimitedError carries the human-readable category name and the
// estimated wait until the next slot frees.
type RateLimitedError struct {
	// Category is the display name of the rate-limited API family.
	Category string
	// RetryIn estimates how long until a request will be admitted.
	RetryIn time.Duration
}

// Error implements error.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("prestige: rate limited on %s, retry in %s", e.Category, e.RetryIn.Round(time.Second))
}

// Is makes the error match ErrRateLimited under errors.Is.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
