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
	"time"

	"golang.org/x/time/rate"

	"github.com/hfritz34/prestige-native-sub000/internal/validation"
)

// SmoothingConfig throttles the raw request rate against the data source
// with a token bucket. This is request smoothing on the producer itself,
// independent of the advisory per-category sliding windows: the windows
// keep the client inside the backend's published budgets, the smoother
// keeps bursts of admitted requests from arriving all at once.
type SmoothingConfig struct {
	// RequestsPerSecond is the sustained fetch rate.
	RequestsPerSecond float64
	// Burst is the number of fetches that may exceed the sustained rate
	// momentarily.
	Burst int
	// WaitTimeout bounds how long a fetch may wait for a token. Zero means
	// fail immediately when no token is available.
	WaitTimeout time.Duration
}

// BreakerConfig configures the consecutive-failure circuit breaker guarding
// the data source.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before allowing a
	// probe.
	ResetTimeout time.Duration
}

// ProtectionConfig combines the optional data source protections. Either
// field may be nil to disable that protection.
type ProtectionConfig struct {
	// Smoothing throttles the raw fetch rate.
	Smoothing *SmoothingConfig
	// Breaker short-circuits fetches while the backend is failing.
	Breaker *BreakerConfig
}

// enforce compilation error
var _ validation.Validator = (*ProtectionConfig)(nil)

// Validate validates the protection configuration.
func (p *ProtectionConfig) Validate() error {
	chain := validation.New(validation.AllErrors())
	if p.Smoothing != nil {
		chain = chain.
			AddAssertion(p.Smoothing.RequestsPerSecond > 0, "protection.smoothing.requestsPerSecond is invalid").
			AddAssertion(p.Smoothing.Burst >= 0, "protection.smoothing.burst is invalid").
			AddAssertion(p.Smoothing.WaitTimeout >= 0, "protection.smoothing.waitTimeout is invalid")
	}
	if p.Breaker != nil {
		chain = chain.
			AddAssertion(p.Breaker.FailureThreshold > 0, "protection.breaker.failureThreshold is invalid").
			AddAssertion(p.Breaker.ResetTimeout > 0, "protection.breaker.resetTimeout is invalid")
	}
	return chain.Validate()
}

// apply wraps source with the configured protections. A nil config or a
// config with neither protection returns source unchanged.
func (p *ProtectionConfig) apply(source DataSource) DataSource {
	if p == nil || source == nil {
		return source
	}

	smoother := newSmoother(p.Smoothing)
	breaker := newBreaker(p.Breaker)
	if smoother == nil && breaker == nil {
		return source
	}

	return &protectedSource{
		source:   source,
		smoother: smoother,
		breaker:  breaker,
	}
}

type protectedSource struct {
	source   DataSource
	smoother *smoother
	breaker  *breaker
}

func (p *protectedSource) Fetch(ctx context.Context, category Category, key string) ([]byte, error) {
	if p.breaker != nil && !p.breaker.allow() {
		return nil, ErrDataSourceCircuitOpen
	}

	if p.smoother != nil {
		if err := p.smoother.wait(ctx); err != nil {
			if p.breaker != nil {
				p.breaker.abort()
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, ErrDataSourceRateLimited
		}
	}

	value, err := p.source.Fetch(ctx, category, key)
	if p.breaker != nil {
		if err != nil {
			p.breaker.onFailure()
		} else {
			p.breaker.onSuccess()
		}
	}
	return value, err
}

type smoother struct {
	limiter     *rate.Limiter
	waitTimeout time.Duration
}

func newSmoother(cfg *SmoothingConfig) *smoother {
	if cfg == nil || cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 0 {
		burst = 0
	}
	return &smoother{
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		waitTimeout: cfg.WaitTimeout,
	}
}

func (s *smoother) wait(ctx context.Context) error {
	if s.waitTimeout == 0 {
		if !s.limiter.Allow() {
			return ErrDataSourceRateLimited
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()
	if err := s.limiter.Wait(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		// rate.Limiter reports an unreachable deadline as a plain error
		// before sleeping; normalize it to the context error.
		return context.DeadlineExceeded
	}
	return nil
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker is a consecutive-failure circuit breaker.
//
// Closed: fetches allowed; FailureThreshold consecutive failures open it.
// Open: fetches rejected until ResetTimeout elapses.
// Half-open: exactly one probe allowed; success closes, failure re-opens.
type breaker struct {
	mu               sync.Mutex
	state            breakerState
	failures         int
	threshold        int
	resetTimeout     time.Duration
	openedAt         time.Time
	halfOpenInflight bool
}

func newBreaker(cfg *BreakerConfig) *breaker {
	if cfg == nil || cfg.FailureThreshold <= 0 || cfg.ResetTimeout <= 0 {
		return nil
	}
	return &breaker{
		state:        breakerClosed,
		threshold:    cfg.FailureThreshold,
		resetTimeout: cfg.ResetTimeout,
	}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(b.openedAt) < b.resetTimeout {
			return false
		}
		b.state = breakerHalfOpen
		b.halfOpenInflight = true
		return true
	case breakerHalfOpen:
		if b.halfOpenInflight {
			return false
		}
		b.halfOpenInflight = true
		return true
	default:
		return false
	}
}

func (b *breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerHalfOpen:
		b.state = breakerClosed
		b.failures = 0
		b.halfOpenInflight = false
	case breakerClosed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerHalfOpen:
		b.state = breakerOpen
		b.openedAt = time.Now()
		b.halfOpenInflight = false
	case breakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.state = breakerOpen
			b.openedAt = time.Now()
		}
	}
}

// abort releases the half-open probe slot without recording an outcome.
// Used when the probe never reached the backend.
func (b *breaker) abort() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.halfOpenInflight = false
	}
}
