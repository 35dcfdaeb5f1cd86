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

package admin

import (
	"crypto/tls"
	"strings"
	"time"
)

const (
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 30 * time.Second
)

// Config holds the settings of the diagnostic HTTP server. The zero value
// is usable: without a ListenAddr the server never starts.
type Config struct {
	// ListenAddr is the host:port to serve diagnostics on. Empty disables
	// the server entirely.
	ListenAddr string
	// BasePath prefixes every endpoint path.
	BasePath string
	// ReadTimeout caps how long reading a request may take.
	ReadTimeout time.Duration
	// WriteTimeout caps how long writing a response may take.
	WriteTimeout time.Duration
	// IdleTimeout caps how long a keep-alive connection may sit idle.
	IdleTimeout time.Duration
	// TLSConfig switches the listener to HTTPS when set.
	TLSConfig *tls.Config
}

// Normalize fills unset fields with defaults and canonicalizes the base
// path to a single leading slash with no trailing slash.
func (c Config) Normalize() Config {
	out := c
	if out.BasePath == "" {
		out.BasePath = defaultAdminBasePath
	}
	out.BasePath = "/" + strings.Trim(out.BasePath, "/")
	out.ReadTimeout = orDefault(out.ReadTimeout, defaultReadTimeout)
	out.WriteTimeout = orDefault(out.WriteTimeout, defaultWriteTimeout)
	out.IdleTimeout = orDefault(out.IdleTimeout, defaultIdleTimeout)
	return out
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
