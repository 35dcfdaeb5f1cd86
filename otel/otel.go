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

// Package otel holds the OpenTelemetry configuration consumed by the
// caching engine's instrumentation.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// MetricConfig holds the settings used to create meters and instruments.
// It is treated as immutable after construction.
type MetricConfig struct {
	provider metric.MeterProvider
}

// MetricOption configures a MetricConfig.
type MetricOption func(*MetricConfig)

// WithMeterProvider sets the MeterProvider used when obtaining a meter.
// Defaults to otel.GetMeterProvider().
func WithMeterProvider(provider metric.MeterProvider) MetricOption {
	return func(cfg *MetricConfig) {
		cfg.provider = provider
	}
}

// NewMetricConfig builds a MetricConfig using the supplied options.
func NewMetricConfig(opts ...MetricOption) *MetricConfig {
	cfg := &MetricConfig{
		provider: otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Provider returns the configured MeterProvider.
func (c MetricConfig) Provider() metric.MeterProvider {
	return c.provider
}

// TracerConfig holds the settings used to create tracers and spans.
// It is treated as immutable after construction.
type TracerConfig struct {
	provider   trace.TracerProvider
	attributes []attribute.KeyValue
}

// TracerOption configures a TracerConfig.
type TracerOption func(*TracerConfig)

// WithTracerProvider sets the TracerProvider used when obtaining a tracer.
// Defaults to otel.GetTracerProvider().
func WithTracerProvider(provider trace.TracerProvider) TracerOption {
	return func(cfg *TracerConfig) {
		cfg.provider = provider
	}
}

// WithAttributes sets static attributes attached to every span created
// under this configuration.
func WithAttributes(attributes ...attribute.KeyValue) TracerOption {
	return func(cfg *TracerConfig) {
		cfg.attributes = attributes
	}
}

// NewTracerConfig builds a TracerConfig using the supplied options.
func NewTracerConfig(opts ...TracerOption) *TracerConfig {
	cfg := &TracerConfig{
		provider: otel.GetTracerProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// TracerProvider returns the configured TracerProvider.
func (c TracerConfig) TracerProvider() trace.TracerProvider {
	return c.provider
}

// Attributes returns the configured static span attributes.
func (c TracerConfig) Attributes() []attribute.KeyValue {
	return c.attributes
}
