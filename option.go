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

	"github.com/hfritz34/prestige-native-sub000/log"
	"github.com/hfritz34/prestige-native-sub000/otel"
	"github.com/hfritz34/prestige-native-sub000/ratelimit"
)

// Option defines a configuration option that can be applied to a Config.
//
// Implementations of this interface modify the configuration when applied.
type Option interface {
	// Apply applies the configuration option to the given Config instance.
	Apply(config *Config)
}

// enforce compilation error if OptionFunc does not implement Option
var _ Option = OptionFunc(nil)

// OptionFunc is a function type that implements the Option interface.
//
// It allows functions to be used as configuration options for Config.
type OptionFunc func(config *Config)

// Apply applies the OptionFunc to the given Config.
func (f OptionFunc) Apply(config *Config) {
	f(config)
}

// WithLogger configures the config to use a custom logger.
//
// Usage:
//
//	config := NewConfig(source, WithLogger(myLogger))
func WithLogger(logger log.Logger) Option {
	return OptionFunc(
		func(config *Config) {
			config.logger = logger
		},
	)
}

// WithCategories replaces the default category table.
//
// The table defines one descriptor per category: display name, key prefix
// and TTL. Later operations naming a category outside the table fail with
// ErrUnknownCategory.
//
// Usage:
//
//	config := NewConfig(source, WithCategories(descriptors...))
func WithCategories(descriptors ...CategoryDescriptor) Option {
	return OptionFunc(func(config *Config) {
		config.categories = descriptors
	})
}

// WithCapacity bounds the local tier by entry count and cumulative byte
// size. When either cap is exceeded, the least recently used entries are
// evicted first.
//
// Usage:
//
//	config := NewConfig(source, WithCapacity(4096, 32<<20))
func WithCapacity(maxEntries int, maxBytes int64) Option {
	return OptionFunc(func(config *Config) {
		config.maxEntries = maxEntries
		config.maxBytes = maxBytes
	})
}

// WithCoalesceWait bounds how long a coalesced caller waits on another
// caller's in-flight fetch before falling back to a cache read.
//
// Usage:
//
//	config := NewConfig(source, WithCoalesceWait(250*time.Millisecond))
func WithCoalesceWait(wait time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.coalesceWait = wait
	})
}

// WithRateWindows replaces the default sliding-window limit table.
//
// Categories absent from the table are not limited. Limits should sit
// slightly below the true backend budgets.
//
// Usage:
//
//	config := NewConfig(source, WithRateWindows(windows...))
func WithRateWindows(windows ...ratelimit.WindowConfig) Option {
	return OptionFunc(func(config *Config) {
		config.rateWindows = windows
	})
}

// WithRemote enables the Redis-backed remote cache tier.
//
// The tier is consulted on local miss only and every operation against it
// is best-effort: the engine functions identically, minus the freshness
// optimization, when the tier is unreachable.
//
// Usage:
//
//	config := NewConfig(source, WithRemote(&RemoteConfig{Addr: "localhost:6379"}))
func WithRemote(remote *RemoteConfig) Option {
	return OptionFunc(func(config *Config) {
		config.remote = remote
	})
}

// WithProtection wraps the data source with request smoothing and a
// circuit breaker.
//
// Usage:
//
//	config := NewConfig(source, WithProtection(&ProtectionConfig{...}))
func WithProtection(protection *ProtectionConfig) Option {
	return OptionFunc(func(config *Config) {
		config.protection = protection
	})
}

// WithSweepInterval configures the background expiry sweep period. Zero
// disables the sweep; lazy expiry on read still guarantees correctness.
//
// Usage:
//
//	config := NewConfig(source, WithSweepInterval(time.Minute))
func WithSweepInterval(interval time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.sweepInterval = interval
	})
}

// WithMetrics configures the engine to use the provided OpenTelemetry
// metric settings.
//
// Usage:
//
//	config := NewConfig(source, WithMetrics(otel.NewMetricConfig()))
func WithMetrics(metricConfig *otel.MetricConfig) Option {
	return OptionFunc(func(config *Config) {
		config.metricConfig = metricConfig
	})
}

// WithTracing configures the engine to use the provided OpenTelemetry
// tracing settings.
//
// Usage:
//
//	config := NewConfig(source, WithTracing(otel.NewTracerConfig()))
func WithTracing(traceConfig *otel.TracerConfig) Option {
	return OptionFunc(func(config *Config) {
		config.traceConfig = traceConfig
	})
}

// WithClock overrides the engine's time source. Intended for tests that
// simulate clock advance across TTL boundaries.
//
// Usage:
//
//	config := NewConfig(source, WithClock(fakeClock.Now))
func WithClock(clock func() time.Time) Option {
	return OptionFunc(func(config *Config) {
		config.clock = clock
	})
}
