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
	"time"

	"github.com/flowchartsman/retry"
	"github.com/redis/go-redis/v9"

	"github.com/hfritz34/prestige-native-sub000/internal/validation"
	"github.com/hfritz34/prestige-native-sub000/log"
)

const (
	// DefaultRemoteTimeout bounds each remote tier operation.
	DefaultRemoteTimeout = 2 * time.Second

	// DefaultRemoteKeyPrefix namespaces the module's keys inside a shared
	// Redis instance.
	DefaultRemoteKeyPrefix = "prestige:"

	remotePingAttempts = 3
	remoteScanCount    = 100
)

// RemoteConfig configures the Redis-backed remote cache tier.
type RemoteConfig struct {
	// Addr is the Redis address, e.g. "localhost:6379". Empty disables the
	// tier entirely.
	Addr string
	// Password is the optional Redis credential.
	Password string
	// DB is the Redis database number.
	DB int
	// KeyPrefix namespaces keys inside a shared instance. Defaults to
	// DefaultRemoteKeyPrefix.
	KeyPrefix string
	// Timeout bounds each operation. Defaults to DefaultRemoteTimeout.
	Timeout time.Duration
}

// enforce compilation error
var _ validation.Validator = (*RemoteConfig)(nil)

// Validate validates the remote tier configuration.
func (c *RemoteConfig) Validate() error {
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("remote.Addr", c.Addr)).
		AddAssertion(c.Timeout >= 0, "remote.Timeout is invalid").
		AddAssertion(c.DB >= 0, "remote.DB is invalid").
		Validate()
}

// RemoteCache is the Redis-backed second cache tier.
//
// It is a freshness optimization, never a source of truth: every operation
// is best-effort, and any Redis failure degrades to "absent" or a no-op
// without surfacing an error to the caller. When unconfigured the tier
// reports itself disabled and every call short-circuits.
type RemoteCache struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	logger  log.Logger
}

// NewRemoteCache creates the remote tier. A nil config yields a disabled
// tier on which every operation is a no-op.
func NewRemoteCache(config *RemoteConfig, logger log.Logger) *RemoteCache {
	if logger == nil {
		logger = log.DiscardLogger
	}

	if config == nil || config.Addr == "" {
		return &RemoteCache{logger: logger}
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = DefaultRemoteKeyPrefix
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RemoteCache{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
		logger:  logger,
	}
}

// Enabled reports whether the tier is configured.
func (r *RemoteCache) Enabled() bool {
	return r.client != nil
}

// Connect verifies connectivity with a few retried pings. A failing ping is
// logged but leaves the tier enabled, since Redis may become reachable
// later; subsequent operations keep degrading silently until it does.
func (r *RemoteCache) Connect(ctx context.Context) {
	if !r.Enabled() {
		return
	}

	retrier := retry.NewRetrier(remotePingAttempts, 100*time.Millisecond, time.Second)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.client.Ping(pingCtx).Err()
	})
	if err != nil {
		r.logger.Warnf("remote cache tier unreachable, continuing local-only: %v", err)
		return
	}
	r.logger.Info("remote cache tier connected")
}

// Get returns the remote value for key, or false when absent, expired, or
// the tier is disabled or unreachable.
func (r *RemoteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !r.Enabled() {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	value, err := r.client.Get(opCtx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debugf("remote get %s failed: %v", key, err)
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key with the given TTL, best-effort.
func (r *RemoteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !r.Enabled() {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(opCtx, r.prefix+key, value, ttl).Err(); err != nil {
		r.logger.Debugf("remote set %s failed: %v", key, err)
	}
}

// Delete removes key, best-effort.
func (r *RemoteCache) Delete(ctx context.Context, key string) {
	if !r.Enabled() {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Del(opCtx, r.prefix+key).Err(); err != nil {
		r.logger.Debugf("remote delete %s failed: %v", key, err)
	}
}

// DeletePattern removes every key starting with prefix, best-effort. It
// scans in batches rather than using KEYS so a large keyspace does not
// block the server.
func (r *RemoteCache) DeletePattern(ctx context.Context, prefix string) {
	if !r.Enabled() {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var cursor uint64
	match := r.prefix + prefix + "*"
	for {
		keys, next, err := r.client.Scan(opCtx, cursor, match, remoteScanCount).Result()
		if err != nil {
			r.logger.Debugf("remote scan %s failed: %v", prefix, err)
			return
		}

		if len(keys) > 0 {
			if err := r.client.Del(opCtx, keys...).Err(); err != nil {
				r.logger.Debugf("remote delete pattern %s failed: %v", prefix, err)
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Close releases the underlying client.
func (r *RemoteCache) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
