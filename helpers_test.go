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
	"fmt"
	"sync"
)

// MockDataSource serves canned payloads and counts fetches per key.
type MockDataSource struct {
	mu      sync.Mutex
	fetches map[string]int
	fail    error
}

var _ DataSource = (*MockDataSource)(nil)

func NewMockDataSource() *MockDataSource {
	return &MockDataSource{fetches: make(map[string]int)}
}

// FailWith makes every subsequent fetch return err.
func (m *MockDataSource) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// Fetches returns how many times the key was fetched in the category.
func (m *MockDataSource) Fetches(category Category, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[string(category)+"/"+key]
}

// TotalFetches returns the number of fetches across all keys.
func (m *MockDataSource) TotalFetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, count := range m.fetches {
		total += count
	}
	return total
}

func (m *MockDataSource) Fetch(_ context.Context, category Category, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[string(category)+"/"+key]++
	if m.fail != nil {
		return nil, m.fail
	}
	return []byte(fmt.Sprintf("payload:%s:%s", category, key)), nil
}
