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


package matching

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/spreadsheet"
)

// DefaultThreshold is the minimum fuzzy score accepted as a match.
const DefaultThreshold = 0.85

// Matcher resolves spreadsheet product names to catalog products.
type Matcher struct {
	products   []*core.Product
	normalized []string
	byName     map[string]*core.Product
	overrides  *OverrideStore
	threshold  float64
	scorer     Scorer
	logger     *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithThreshold sets the inclusive minimum fuzzy score.
// Default is DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
		}
		m.threshold = threshold
		return nil
	}
}

// WithScorer replaces the similarity function.
// Default is TokenSortRatio.
func WithScorer(scorer Scorer) Option {
	return func(m *Matcher) error {
		if scorer == nil {
			return ErrScorerRequired
		}
		m.scorer = scorer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMatcher creates a matcher over products, which are scanned in the
// order given. overrides may be nil.
func NewMatcher(products []*core.Product, overrides *OverrideStore, opts ...Option) (*Matcher, error) {
	m := &Matcher{
		products:   products,
		normalized: make([]string, len(products)),
		byName:     make(map[string]*core.Product, len(products)),
		overrides:  overrides,
		threshold:  DefaultThreshold,
		scorer:     TokenSortRatio,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "matcher")

	for i, p := range products {
		m.normalized[i] = NormalizeCatalogName(p.Name)
		if _, ok := m.byName[p.Name]; !ok {
			m.byName[p.Name] = p
		}
	}
	return m, nil
}

// Threshold returns the configured fuzzy threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match resolves one spreadsheet product name. Exactly one of the return
// values is non-nil.
func (m *Matcher) Match(entry *core.AggregatedProblem) (*core.MatchResult, *core.UnresolvedEntry) {
	name := entry.ProductName

	if target, ok := m.overrides.Lookup(name); ok {
		if product, found := m.byName[target]; found {
			m.logger.Info("manual match", "csv_product", name, "product", product.Name)
			return &core.MatchResult{
				CSVProduct: name,
				Product:    product,
				Score:      1.0,
				Source:     core.MatchSourceManual,
			}, nil
		}
		m.logger.Warn("manual mapping target not in catalog, falling back to fuzzy",
			"csv_product", name, "target", target)
	}

	query := Normalize(name)
	var (
		best      *core.Product
		bestScore float64
	)
	for i, product := range m.products {
		score := m.scorer(query, m.normalized[i])
		if score > bestScore {
			best = product
			bestScore = score
		}
	}

	if best != nil && bestScore >= m.threshold {
		m.logger.Info("fuzzy match", "csv_product", name, "product", best.Name, "score", bestScore)
		return &core.MatchResult{
			CSVProduct: name,
			Product:    best,
			Score:      bestScore,
			Source:     core.MatchSourceFuzzy,
		}, nil
	}

	m.logger.Warn("no match", "csv_product", name, "best_score", bestScore)
	return nil, &core.UnresolvedEntry{
		CSVProduct: name,
		Category:   entry.Category,
		Problems:   entry.Problems,
		Reason:     fmt.Sprintf("no fuzzy match above %v threshold and no manual mapping", m.threshold),
	}
}

// MatchAll resolves every aggregated product in order.
func (m *Matcher) MatchAll(agg *spreadsheet.Aggregate) ([]*core.MatchResult, []*core.UnresolvedEntry) {
	var (
		matches    []*core.MatchResult
		unresolved []*core.UnresolvedEntry
	)
	for _, entry := range agg.Products() {
		match, miss := m.Match(entry)
		if match != nil {
			matches = append(matches, match)
		} else {
			unresolved = append(unresolved, miss)
		}
	}

	manual := 0
	for _, match := range matches {
		if match.Source == core.MatchSourceManual {
			manual++
		}
	}
	m.logger.Info("matching complete",
		"matched", len(matches),
		"manual", manual,
		"fuzzy", len(matches)-manual,
		"unresolved", len(unresolved))
	return matches, unresolved
}
