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
	"os"
	"time"

	"github.com/hfritz34/prestige-native-sub000/internal/validation"
	"github.com/hfritz34/prestige-native-sub000/log"
	"github.com/hfritz34/prestige-native-sub000/otel"
	"github.com/hfritz34/prestige-native-sub000/ratelimit"
)

const (
	// DefaultMaxEntries bounds the local tier's entry count.
	DefaultMaxEntries = 2048

	// DefaultMaxBytes bounds the local tier's cumulative payload size.
	DefaultMaxBytes = 16 << 20

	// DefaultCoalesceWait is how long a coalesced caller waits for an
	// in-flight fetch before falling back to a cache read.
	DefaultCoalesceWait = 500 * time.Millisecond

	// DefaultSweepInterval is the period of the background expiry sweep.
	// The sweep only bounds memory held by expired-but-unread entries;
	// correctness relies on lazy expiry alone.
	DefaultSweepInterval = 5 * time.Minute
)

// Config defines the caching core configuration.
type Config struct {
	// dataSource produces fresh values on cache miss.
	dataSource DataSource

	// categories is the category table. Defaults to DefaultCategories.
	categories []CategoryDescriptor

	// maxEntries and maxBytes bound the local tier.
	maxEntries int
	maxBytes   int64

	// coalesceWait bounds how long coalesced callers wait on an in-flight
	// fetch before re-reading the cache.
	coalesceWait time.Duration

	// rateWindows is the sliding-window limit table. Defaults to
	// ratelimit.DefaultWindows.
	rateWindows []ratelimit.WindowConfig

	// remote configures the Redis-backed remote tier. Nil disables the
	// tier; the engine then runs local-only.
	remote *RemoteConfig

	// protection optionally wraps the data source with request smoothing
	// and a circuit breaker.
	protection *ProtectionConfig

	// sweepInterval is the background expiry sweep period. Zero disables
	// the sweep.
	sweepInterval time.Duration

	// logger is the logger used by the engine and tiers.
	logger log.Logger

	// metricConfig and traceConfig hold the OpenTelemetry settings.
	metricConfig *otel.MetricConfig
	traceConfig  *otel.TracerConfig

	// clock is the time source. Overridable for tests.
	clock func() time.Time
}

// enforce compilation error
var _ validation.Validator = (*Config)(nil)

// NewConfig creates a configuration for the caching core.
//
// The data source is the single required collaborator: it performs the
// network fetch on cache miss. Every other knob has a default and is set
// through options.
func NewConfig(dataSource DataSource, opts ...Option) *Config {
	config := &Config{
		dataSource:    dataSource,
		categories:    DefaultCategories(),
		maxEntries:    DefaultMaxEntries,
		maxBytes:      DefaultMaxBytes,
		coalesceWait:  DefaultCoalesceWait,
		rateWindows:   ratelimit.DefaultWindows(),
		sweepInterval: DefaultSweepInterval,
		logger:        log.New(log.InfoLevel, os.Stdout),
		clock:         time.Now,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// DataSource returns the configured data source.
func (c Config) DataSource() DataSource {
	return c.dataSource
}

// Categories returns the category table.
func (c Config) Categories() []CategoryDescriptor {
	return c.categories
}

// MaxEntries bounds the local tier's entry count.
func (c Config) MaxEntries() int {
	return c.maxEntries
}

// MaxBytes bounds the local tier's cumulative payload size.
func (c Config) MaxBytes() int64 {
	return c.maxBytes
}

// CoalesceWait bounds how long coalesced callers wait on an in-flight
// fetch before re-reading the cache.
func (c Config) CoalesceWait() time.Duration {
	return c.coalesceWait
}

// RateWindows returns the sliding-window limit table.
func (c Config) RateWindows() []ratelimit.WindowConfig {
	return c.rateWindows
}

// Remote returns the remote tier configuration. Nil means disabled.
func (c Config) Remote() *RemoteConfig {
	return c.remote
}

// Protection returns the data source protection configuration. Nil means
// the data source is called unwrapped.
func (c Config) Protection() *ProtectionConfig {
	return c.protection
}

// SweepInterval is the background expiry sweep period. Zero disables the
// sweep.
func (c Config) SweepInterval() time.Duration {
	return c.sweepInterval
}

// Logger returns the configured logger.
func (c Config) Logger() log.Logger {
	return c.logger
}

// MetricConfig returns the OpenTelemetry metric settings. Nil disables
// metrics.
func (c Config) MetricConfig() *otel.MetricConfig {
	return c.metricConfig
}

// TraceConfig returns the OpenTelemetry tracing settings. Nil disables
// tracing.
func (c Config) TraceConfig() *otel.TracerConfig {
	return c.traceConfig
}

// Clock returns the configured time source.
func (c Config) Clock() func() time.Time {
	return c.clock
}

// Validate validates the configuration.
func (c Config) Validate() error {
	chain := validation.
		New(validation.FailFast()).
		AddAssertion(c.dataSource != nil, "dataSource is required").
		AddAssertion(len(c.categories) > 0, "categories are required").
		AddAssertion(c.maxEntries > 0, "maxEntries is invalid").
		AddAssertion(c.maxBytes > 0, "maxBytes is invalid").
		AddAssertion(c.coalesceWait > 0, "coalesceWait is invalid").
		AddAssertion(c.sweepInterval >= 0, "sweepInterval is invalid").
		AddAssertion(c.logger != nil, "logger is required").
		AddAssertion(c.clock != nil, "clock is required")

	seenIDs := make(map[Category]struct{}, len(c.categories))
	seenPrefixes := make(map[string]struct{}, len(c.categories))
	for _, descriptor := range c.categories {
		_, dupID := seenIDs[descriptor.ID]
		_, dupPrefix := seenPrefixes[descriptor.KeyPrefix]
		seenIDs[descriptor.ID] = struct{}{}
		seenPrefixes[descriptor.KeyPrefix] = struct{}{}

		chain = chain.
			AddValidator(validation.NewEmptyStringValidator("category.ID", string(descriptor.ID))).
			AddValidator(validation.NewEmptyStringValidator("category.KeyPrefix", descriptor.KeyPrefix)).
			AddAssertion(descriptor.TTL > 0, "category.TTL is invalid for "+string(descriptor.ID)).
			AddAssertion(!dupID, "duplicate category: "+string(descriptor.ID)).
			AddAssertion(!dupPrefix, "duplicate key prefix: "+descriptor.KeyPrefix)
	}

	for _, window := range c.rateWindows {
		chain = chain.
			AddValidator(validation.NewEmptyStringValidator("rateWindow.Category", string(window.Category))).
			AddAssertion(window.MaxRequests > 0, "rateWindow.MaxRequests is invalid for "+string(window.Category)).
			AddAssertion(window.Window > 0, "rateWindow.Window is invalid for "+string(window.Category))
	}

	if c.remote != nil {
		chain = chain.AddValidator(c.remote)
	}

	if c.protection != nil {
		chain = chain.AddValidator(c.protection)
	}

	return chain.Validate()
}
