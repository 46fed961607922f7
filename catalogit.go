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


package catalogit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/ai/openai"
	"github.com/poiesic/catalogit/config"
	"github.com/poiesic/catalogit/metrics"
	"github.com/poiesic/catalogit/pipeline"
	"github.com/poiesic/catalogit/search"
	"github.com/poiesic/catalogit/storage"
	"github.com/poiesic/catalogit/storage/badger"
	"github.com/poiesic/catalogit/storage/postgres"
)

// Catalog owns the storage and AI provider of one process.
type Catalog struct {
	config  *config.Config
	catalog storage.CatalogRepository
	runs    storage.RunRepository
	backend *badger.Backend
	store   *postgres.Store
	metrics *metrics.Metrics
	logger  *slog.Logger

	providerOnce sync.Once
	provider     ai.AIProvider
	providerErr  error
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithProvider uses provider instead of creating an OpenAI provider.
func WithProvider(provider ai.AIProvider) Option {
	return func(c *Catalog) {
		c.providerOnce.Do(func() {
			c.provider = provider
		})
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// Open connects to the store selected by cfg.Database.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch cfg.Database.Driver {
	case config.DriverBadger:
		// An empty path keeps the catalog in memory.
		backend, err := badger.OpenBackend(cfg.Database.Path, cfg.Database.Path == "", badger.WithLogger(c.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		catalog, err := badger.NewCatalogRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		c.backend = backend
		c.catalog = catalog
		c.runs = badger.NewRunRepository(backend)
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		c.store = store
		c.catalog = store
		c.runs = store
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", config.ErrInvalidConfig, cfg.Database.Driver)
	}

	c.metrics = metrics.New(
		metrics.WithPushgateway(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job),
		metrics.WithLogger(c.logger))
	c.logger.Debug("opened catalog", "driver", cfg.Database.Driver)
	return c, nil
}

// Close releases the provider and the store.
func (c *Catalog) Close() error {
	if c.provider != nil {
		if err := c.provider.Close(); err != nil {
			c.logger.Error("error closing AI provider", "err", err)
		}
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Error("error closing postgres store", "err", err)
			return err
		}
	}
	if c.backend != nil {
		if err := c.backend.Close(); err != nil {
			c.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

// CatalogRepository returns the product store.
func (c *Catalog) CatalogRepository() storage.CatalogRepository {
	return c.catalog
}

// RunRepository returns the run summary store.
func (c *Catalog) RunRepository() storage.RunRepository {
	return c.runs
}

// Metrics returns the run metrics shared by every runner of this catalog.
func (c *Catalog) Metrics() *metrics.Metrics {
	return c.metrics
}

// Provider returns the AI provider, creating it on first use.
func (c *Catalog) Provider() (ai.AIProvider, error) {
	c.providerOnce.Do(func() {
		c.provider, c.providerErr = openai.NewProvider(c.config.AIConfig())
	})
	return c.provider, c.providerErr
}

// PipelineConfig derives the phase settings from the loaded configuration.
func (c *Catalog) PipelineConfig() *pipeline.Config {
	return &pipeline.Config{
		Scrape:          c.config.ScrapeConfig(),
		Embed:           c.config.EmbeddingConfig(),
		SpreadsheetPath: c.config.Enrich.SpreadsheetPath,
		OverridesPath:   c.config.Enrich.OverridesPath,
		UnresolvedPath:  c.config.Enrich.UnresolvedPath,
		Threshold:       c.config.Enrich.Threshold,
		TargetMatchRate: c.config.Enrich.TargetMatchRate,
		MinMatched:      c.config.Enrich.MinMatched,
	}
}

// NewRunner creates a pipeline runner. withProvider controls whether the
// AI provider is created; phases other than embed do not need it.
func (c *Catalog) NewRunner(withProvider bool, opts ...pipeline.Option) (*pipeline.Runner, error) {
	var provider ai.AIProvider
	if withProvider {
		var err error
		if provider, err = c.Provider(); err != nil {
			return nil, err
		}
	}
	opts = append([]pipeline.Option{pipeline.WithMetrics(c.metrics), pipeline.WithLogger(c.logger)}, opts...)
	return pipeline.NewRunner(c.catalog, c.runs, provider, c.PipelineConfig(), opts...)
}

// NewSearcher creates a product searcher.
func (c *Catalog) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	provider, err := c.Provider()
	if err != nil {
		return nil, err
	}
	opts = append([]search.Option{search.WithLogger(c.logger)}, opts...)
	return search.NewSearcher(c.catalog, provider, opts...)
}
