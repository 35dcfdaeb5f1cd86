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

import "context"

// DataSource produces fresh values on cache miss. It is the module's single
// boundary to the transport layer: implementations perform the actual HTTP
// call and serialize the response; any error they return is treated as a
// fetch failure.
//
// Fetch must honor ctx cancellation. It is called at most once concurrently
// per (category, key) pair; the request coalescer guarantees this.
type DataSource interface {
	// Fetch returns the serialized fresh value for key in the given
	// category.
	Fetch(ctx context.Context, category Category, key string) ([]byte, error)
}

// DataSourceFunc adapts a function to the DataSource interface.
type DataSourceFunc func(ctx context.Context, category Category, key string) ([]byte, error)

// Fetch implements DataSource.
func (f DataSourceFunc) Fetch(ctx context.Context, category Category, key string) ([]byte, error) {
	return f(ctx, category, key)
}
