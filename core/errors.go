// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Failure categories. Per-item errors wrap one of these so callers can
// count them with errors.Is.
var (
	// ErrFetch indicates a network or HTTP failure for one item.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates a required field could not be extracted.
	ErrExtraction = errors.New("extraction failed")

	// ErrValidation indicates malformed input or output for one item.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence indicates a catalog write failed.
	ErrPersistence = errors.New("persistence failed")

	// ErrCompleteness indicates an aggregate count fell below its minimum.
	ErrCompleteness = errors.New("completeness check failed")
)

// Validation causes.
var (
	// ErrMissingName indicates the product heading was absent or empty.
	ErrMissingName = errors.New("product name missing")

	// ErrGenericTitle indicates the heading held the site title instead of a product name.
	ErrGenericTitle = errors.New("product name is the generic site title")

	// ErrEmptyURL indicates a product without a canonical URL.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidURL indicates a URL that is not absolute http(s).
	ErrInvalidURL = errors.New("url must be absolute http(s)")

	// ErrDimensionMismatch indicates an embedding of the wrong width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyVector indicates the provider returned no values.
	ErrEmptyVector = errors.New("embedding is empty")
)

// ItemError is a failure scoped to a single item (URL, row or product).
type ItemError struct {
	Kind error
	Item string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Item, e.Err)
}

// Unwrap exposes both the category and the underlying cause.
func (e *ItemError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewFetchError wraps a network failure for url.
func NewFetchError(url string, err error) error {
	return &ItemError{Kind: ErrFetch, Item: url, Err: err}
}

// NewExtractionError wraps a missing required field for url.
func NewExtractionError(url string, err error) error {
	return &ItemError{Kind: ErrExtraction, Item: url, Err: err}
}

// NewValidationError wraps malformed data for item.
func NewValidationError(item string, err error) error {
	return &ItemError{Kind: ErrValidation, Item: item, Err: err}
}

// NewPersistenceError wraps a failed write for item.
func NewPersistenceError(item string, err error) error {
	return &ItemError{Kind: ErrPersistence, Item: item, Err: err}
}

// CompletenessError reports a phase that finished below its required count.
type CompletenessError struct {
	Phase    string
	Achieved int
	Required int
}

func (e *CompletenessError) Error() string {
	return fmt.Sprintf("%v: %s achieved %d, required %d", ErrCompleteness, e.Phase, e.Achieved, e.Required)
}

func (e *CompletenessError) Unwrap() error {
	return ErrCompleteness
}
