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

// Package validation provides a small fluent validation chain used to
// validate configuration values before they reach the caching core.
package validation

import (
	"errors"
	"strings"
)

// Validator validates a single rule.
type Validator interface {
	// Validate returns an error when the rule is violated.
	Validate() error
}

// Chain accumulates validators and runs them in order.
type Chain struct {
	failFast   bool
	validators []Validator
	violations []error
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// FailFast stops the chain at the first violation.
func FailFast() ChainOption {
	return func(c *Chain) { c.failFast = true }
}

// AllErrors runs every validator and aggregates all violations.
func AllErrors() ChainOption {
	return func(c *Chain) { c.failFast = false }
}

// New creates a validation chain. The default behavior aggregates all errors.
func New(opts ...ChainOption) *Chain {
	chain := &Chain{}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// AddValidator appends a validator to the chain.
func (c *Chain) AddValidator(v Validator) *Chain {
	c.validators = append(c.validators, v)
	return c
}

// AddAssertion appends a boolean assertion with the given violation message.
func (c *Chain) AddAssertion(assertion bool, message string) *Chain {
	c.validators = append(c.validators, NewBooleanValidator(assertion, message))
	return c
}

// Validate runs the chain and returns the aggregated error, if any.
func (c *Chain) Validate() error {
	for _, validator := range c.validators {
		if err := validator.Validate(); err != nil {
			if c.failFast {
				return err
			}
			c.violations = append(c.violations, err)
		}
	}

	if len(c.violations) == 0 {
		return nil
	}

	messages := make([]string, 0, len(c.violations))
	for _, violation := range c.violations {
		messages = append(messages, violation.Error())
	}
	return errors.New(strings.Join(messages, "; "))
}

type booleanValidator struct {
	assertion bool
	message   string
}

// NewBooleanValidator creates a validator that fails when the assertion is false.
func NewBooleanValidator(assertion bool, message string) Validator {
	return &booleanValidator{assertion: assertion, message: message}
}

func (v *booleanValidator) Validate() error {
	if v.assertion {
		return nil
	}
	return errors.New(v.message)
}

type emptyStringValidator struct {
	fieldValue string
	fieldName  string
}

// NewEmptyStringValidator creates a validator that fails when the field value
// is empty.
func NewEmptyStringValidator(fieldName, fieldValue string) Validator {
	return &emptyStringValidator{fieldValue: fieldValue, fieldName: fieldName}
}

func (v *emptyStringValidator) Validate() error {
	if strings.TrimSpace(v.fieldValue) != "" {
		return nil
	}
	return errors.New("the [" + v.fieldName + "] is required")
}

type conditionalValidator struct {
	condition bool
	validator Validator
}

// NewConditionalValidator creates a validator that only runs the wrapped
// validator when the condition holds.
func NewConditionalValidator(condition bool, validator Validator) Validator {
	return &conditionalValidator{condition: condition, validator: validator}
}

func (v *conditionalValidator) Validate() error {
	if !v.condition {
		return nil
	}
	return v.validator.Validate()
}
