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


package enrich

import (
	"context"
	"log/slog"

	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/spreadsheet"
	"github.com/poiesic/catalogit/storage"
)

// sampleSize is the number of enriched products kept in a Coverage.
const sampleSize = 3

// Enricher applies match results to the catalog.
type Enricher struct {
	repository      storage.CatalogRepository
	targetMatchRate float64
	logger          *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithTargetMatchRate sets the match rate below which a warning is logged.
// Default is DefaultTargetMatchRate.
func WithTargetMatchRate(rate float64) Option {
	return func(e *Enricher) error {
		e.targetMatchRate = rate
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher writing to repository.
func NewEnricher(repository storage.CatalogRepository, opts ...Option) (*Enricher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	e := &Enricher{
		repository:      repository,
		targetMatchRate: DefaultTargetMatchRate,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "enricher")
	return e, nil
}

// BuildPatch returns the enrichment patch for a match.
func BuildPatch(match *core.MatchResult, entry *core.AggregatedProblem) *storage.ProductPatch {
	problems := make([]string, len(entry.Problems))
	copy(problems, entry.Problems)
	category := entry.Category

	return &storage.ProductPatch{
		Metadata: core.Metadata{
			core.MetadataProblemMappings: problems,
			core.MetadataCSVCategory:     entry.Category,
			core.MetadataMatchScore:      match.Score,
			core.MetadataMatchSource:     string(match.Source),
		},
		Category: &category,
	}
}

// Enrich writes a patch for every match. Write failures are counted and
// the run continues. unresolved only contributes to the report.
func (e *Enricher) Enrich(ctx context.Context, matches []*core.MatchResult, unresolved []*core.UnresolvedEntry, agg *spreadsheet.Aggregate) (*Report, error) {
	if agg == nil {
		return nil, ErrAggregateRequired
	}

	report := &Report{
		Total:      len(matches) + len(unresolved),
		Matched:    len(matches),
		Unresolved: len(unresolved),
	}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		switch match.Source {
		case core.MatchSourceManual:
			report.Manual++
		case core.MatchSourceFuzzy:
			report.Fuzzy++
		}

		entry, ok := agg.Get(match.CSVProduct)
		if !ok {
			e.logger.Warn("match has no spreadsheet entry", "csv_product", match.CSVProduct)
			continue
		}

		patch := BuildPatch(match, entry)
		if _, err := e.repository.Upsert(ctx, match.Product.URL, patch, storage.MergeShallow); err != nil {
			report.PersistenceErrors++
			report.Errors = append(report.Errors, core.NewPersistenceError(match.Product.URL, err))
			e.logger.Error("failed to enrich product", "product", match.Product.Name, "url", match.Product.URL, "err", err)
			continue
		}
		report.Updated++
		e.logger.Info("enriched product",
			"product", match.Product.Name,
			"problems", len(entry.Problems),
			"category", entry.Category)
	}

	rate := report.MatchRate()
	e.logger.Info("enrichment complete",
		"total", report.Total,
		"matched", report.Matched,
		"manual", report.Manual,
		"fuzzy", report.Fuzzy,
		"unresolved", report.Unresolved,
		"updated", report.Updated,
		"match_rate", rate)
	if report.Total > 0 && rate < e.targetMatchRate {
		e.logger.Warn("match rate below target", "match_rate", rate, "target", e.targetMatchRate)
	}
	return report, nil
}

// Coverage counts catalog products that carry problem mappings.
func (e *Enricher) Coverage(ctx context.Context) (*Coverage, error) {
	products, err := e.repository.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	c := &Coverage{Total: len(products)}
	for _, p := range products {
		if _, ok := p.Metadata[core.MetadataProblemMappings]; !ok {
			continue
		}
		c.Enriched++
		if len(c.Samples) < sampleSize {
			c.Samples = append(c.Samples, p)
		}
	}
	e.logger.Info("catalog coverage", "enriched", c.Enriched, "total", c.Total, "rate", c.Rate())
	return c, nil
}
