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

package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainAllErrors(t *testing.T) {
	err := New(AllErrors()).
		AddAssertion(false, "first failure").
		AddAssertion(false, "second failure").
		Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "first failure")
	require.Contains(t, err.Error(), "second failure")
}

func TestChainFailFast(t *testing.T) {
	err := New(FailFast()).
		AddAssertion(false, "first failure").
		AddAssertion(false, "second failure").
		Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "first failure")
	require.NotContains(t, err.Error(), "second failure")
}

func TestChainNoViolations(t *testing.T) {
	err := New().
		AddAssertion(true, "never reported").
		Validate()
	require.NoError(t, err)
}

func TestBooleanValidator(t *testing.T) {
	require.NoError(t, NewBooleanValidator(true, "ok").Validate())
	err := NewBooleanValidator(false, "boom").Validate()
	require.EqualError(t, err, "boom")
}

func TestEmptyStringValidator(t *testing.T) {
	require.NoError(t, NewEmptyStringValidator("field", "value").Validate())
	err := NewEmptyStringValidator("field", "").Validate()
	require.EqualError(t, err, "the [field] is required")
}

func TestConditionalValidator(t *testing.T) {
	inner := NewBooleanValidator(false, "boom")
	require.NoError(t, NewConditionalValidator(false, inner).Validate())
	require.Error(t, NewConditionalValidator(true, inner).Validate())
}
