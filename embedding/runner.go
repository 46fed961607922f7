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


package embedding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
)

// Config holds configuration for the embedding phase.
type Config struct {
	// BatchSize is the number of products to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of products)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per product
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Dimensions is the required embedding width
	Dimensions int

	// SkipUnchanged skips products whose stored embedding was computed
	// from their current input text
	SkipUnchanged bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Dimensions:     core.EmbeddingDimensions,
	}
}

// Stats summarizes one embedding run.
type Stats struct {
	Total       int
	Enriched    int
	NonEnriched int
	Generated   int
	Stored      int
	Skipped     int
	Errors      []error
	Duration    time.Duration
}

// Check returns a CompletenessError unless every selected product got a
// stored embedding.
func (s *Stats) Check() error {
	if s.Stored >= s.Total {
		return nil
	}
	return &core.CompletenessError{Phase: "embed", Achieved: s.Stored, Required: s.Total}
}

// Counters flattens the stats for run summaries.
func (s *Stats) Counters() map[string]int {
	return map[string]int{
		"total":        s.Total,
		"enriched":     s.Enriched,
		"non_enriched": s.NonEnriched,
		"generated":    s.Generated,
		"stored":       s.Stored,
		"skipped":      s.Skipped,
		"errors":       len(s.Errors),
	}
}

// Runner embeds every product in the catalog.
type Runner struct {
	repository storage.CatalogRepository
	generator  *Generator
	config     *Config
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithProgress sets where progress output is written.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) error {
		if w == nil {
			w = io.Discard
		}
		r.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a new runner. A nil config uses DefaultConfig.
func NewRunner(repository storage.CatalogRepository, embedder ai.Embedder, config *Config, opts ...Option) (*Runner, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	r := &Runner{
		repository: repository,
		config:     config,
		progress:   io.Discard,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.generator = NewGenerator(embedder, config.Dimensions, config.MaxRetries, config.RetryDelay, r.logger)
	r.logger = r.logger.With("component", "embedding")
	return r, nil
}

// Run embeds the catalog. Per-product failures are collected in
// Stats.Errors. The returned error is non-nil only when the catalog
// cannot be listed or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	products, err := r.repository.ListProducts(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list products: %w", err)
	}

	pending := make([]*core.Product, 0, len(products))
	for _, product := range products {
		if r.config.SkipUnchanged && IsCurrent(product) {
			stats.Skipped++
			continue
		}
		pending = append(pending, product)
		if len(product.Metadata.ProblemMappings()) > 0 {
			stats.Enriched++
		} else {
			stats.NonEnriched++
		}
	}
	stats.Total = len(pending)

	if stats.Total == 0 {
		fmt.Fprintf(r.progress, "No products to embed (%d skipped)\n", stats.Skipped)
		stats.Duration = time.Since(start)
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Embedding %d products (batch size: %d, %d with problem mappings)\n",
		stats.Total, r.config.BatchSize, stats.Enriched)

	tracker := NewProgressTracker(r.progress, stats.Total, r.config.ReportInterval)
	tracker.Start()

	err = forEachBatch(ctx, pending, r.config.BatchSize, func(batch []*core.Product) error {
		stored := 0
		for _, result := range r.generator.Generate(ctx, batch) {
			if result.Err != nil {
				stats.Errors = append(stats.Errors, result.Err)
				continue
			}
			stats.Generated++

			if err := r.repository.StoreEmbedding(ctx, result.Product.URL, result.Vector, result.Hash); err != nil {
				stats.Errors = append(stats.Errors, core.NewPersistenceError(result.Product.URL, err))
				r.logger.Error("failed to store embedding", "url", result.Product.URL, "err", err)
				continue
			}
			stored++
		}
		stats.Stored += stored
		tracker.Advance(stored, len(batch)-stored)
		return nil
	})
	tracker.Finish()
	stats.Duration = time.Since(start)

	r.logger.Info("embedding complete",
		"total", stats.Total,
		"enriched", stats.Enriched,
		"non_enriched", stats.NonEnriched,
		"generated", stats.Generated,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"errors", len(stats.Errors),
		"duration", stats.Duration.Round(time.Millisecond))
	return stats, err
}
