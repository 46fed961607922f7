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
	"fmt"
	"net/url"
	"strings"
)

// ValidateDetail validates scraper output before it reaches the store.
//
// Validation rules:
//   - URL must be an absolute http(s) URL
//   - Name must not be empty
//
// NOT validated:
//   - Description (may be empty, short descriptions are only warned about)
//   - Price (optional)
func ValidateDetail(detail *ProductDetail) error {
	if detail == nil {
		return fmt.Errorf("%w: detail is nil", ErrValidation)
	}
	if err := ValidateURL(detail.URL); err != nil {
		return NewValidationError(detail.URL, err)
	}
	if strings.TrimSpace(detail.Name) == "" {
		return NewExtractionError(detail.URL, ErrMissingName)
	}
	return nil
}

// ValidateURL checks that raw is a usable canonical URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// ValidateEmbedding checks that vector has exactly dim values.
func ValidateEmbedding(vector []float32, dim int) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if len(vector) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dim)
	}
	return nil
}
