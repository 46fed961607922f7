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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/embedding"
	"github.com/poiesic/catalogit/enrich"
	"github.com/poiesic/catalogit/matching"
	"github.com/poiesic/catalogit/metrics"
	"github.com/poiesic/catalogit/scrape"
	"github.com/poiesic/catalogit/spreadsheet"
	"github.com/poiesic/catalogit/storage"
)

// Runner orchestrates the scrape, enrich and embed phases.
type Runner struct {
	catalog  storage.CatalogRepository
	runs     storage.RunRepository
	provider ai.AIProvider
	config   *Config
	fetcher  scrape.Fetcher
	metrics  *metrics.Metrics
	progress io.Writer
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithFetcher replaces the scraper's HTTP fetcher, e.g. with a headless browser.
func WithFetcher(fetcher scrape.Fetcher) Option {
	return func(r *Runner) error {
		r.fetcher = fetcher
		return nil
	}
}

// WithMetrics records run metrics on m.
// Default is a fresh, unpushed registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) error {
		if m != nil {
			r.metrics = m
		}
		return nil
	}
}

// WithProgress sets where embedding progress is written.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithClock sets the time source for run summaries and artifacts.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) error {
		if now != nil {
			r.now = now
		}
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

// NewRunner creates a pipeline runner. provider may be nil when the
// embed phase is never run.
func NewRunner(
	catalog storage.CatalogRepository,
	runs storage.RunRepository,
	provider ai.AIProvider,
	config *Config,
	opts ...Option,
) (*Runner, error) {
	if catalog == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if config == nil || config.Scrape == nil || config.Embed == nil {
		return nil, ErrConfigRequired
	}

	r := &Runner{
		catalog:  catalog,
		runs:     runs,
		provider: provider,
		config:   config,
		progress: io.Discard,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.metrics == nil {
		r.metrics = metrics.New(metrics.WithLogger(r.logger))
	}
	r.logger = r.logger.With("component", "pipeline")
	return r, nil
}

// Metrics returns the metrics the runner records.
func (r *Runner) Metrics() *metrics.Metrics {
	return r.metrics
}

// RunScrape scrapes the portal into the catalog.
func (r *Runner) RunScrape(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	gate, err := r.scrapePhase(ctx, summary)
	return summary, errors.Join(err, gate)
}

// RunEnrich matches the spreadsheet against the catalog and enriches matched products.
func (r *Runner) RunEnrich(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	input, err := r.loadEnrichInput()
	gate, err := r.enrichPhase(ctx, summary, input, err)
	return summary, errors.Join(err, gate)
}

// RunEmbed embeds the catalog.
func (r *Runner) RunEmbed(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	gate, err := r.embedPhase(ctx, summary)
	return summary, errors.Join(err, gate)
}

// RunAll runs every phase. The spreadsheet is parsed while the portal is
// scraped. Gate failures are returned after the last phase; an aborted
// phase stops the run.
func (r *Runner) RunAll(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	var (
		scrapeGate, scrapeErr error
		input                 *enrichInput
		inputErr              error
	)

	var g errgroup.Group
	g.Go(func() error {
		scrapeGate, scrapeErr = r.scrapePhase(ctx, summary)
		return scrapeErr
	})
	g.Go(func() error {
		input, inputErr = r.loadEnrichInput()
		return inputErr
	})
	// Both results are inspected individually below.
	_ = g.Wait()

	gates := []error{scrapeGate}
	if scrapeErr != nil {
		return summary, errors.Join(append(gates, scrapeErr)...)
	}

	enrichGate, enrichErr := r.enrichPhase(ctx, summary, input, inputErr)
	gates = append(gates, enrichGate)
	if enrichErr != nil && (ctx.Err() != nil || errors.Is(enrichErr, ErrPhasePanic)) {
		return summary, errors.Join(append(gates, enrichErr)...)
	}

	embedGate, embedErr := r.embedPhase(ctx, summary)
	gates = append(gates, embedGate)
	return summary, errors.Join(append(gates, enrichErr, embedErr)...)
}

// Status reports the last run of each phase and the enrichment coverage.
func (r *Runner) Status(ctx context.Context) (*Status, error) {
	status := &Status{LastRuns: make(map[string]*core.RunSummary)}
	for _, phase := range Phases {
		run, err := r.runs.LastRunSummary(ctx, phase)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s run: %w", phase, err)
		}
		if run != nil {
			status.LastRuns[phase] = run
		}
	}

	enricher, err := enrich.NewEnricher(r.catalog, enrich.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	status.Coverage, err = enricher.Coverage(ctx)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (r *Runner) scrapePhase(ctx context.Context, summary *Summary) (gate, err error) {
	err = r.phase(ctx, PhaseScrape, summary, func() (map[string]int, error, error) {
		opts := []scrape.Option{scrape.WithLogger(r.logger), scrape.WithClock(r.now)}
		if r.fetcher != nil {
			opts = append(opts, scrape.WithFetcher(r.fetcher))
		}
		scraper, err := scrape.NewScraper(r.catalog, r.config.Scrape, opts...)
		if err != nil {
			return nil, nil, err
		}

		stats, runErr := scraper.Run(ctx)
		summary.Scrape = stats
		r.metrics.AddScrapeItems("inserted", stats.Inserted-stats.Updated)
		r.metrics.AddScrapeItems("updated", stats.Updated)
		r.metrics.AddScrapeItems("fetch_error", stats.FetchErrors)
		r.metrics.AddScrapeItems("extraction_error", stats.ExtractionErrors)
		r.metrics.AddScrapeItems("persistence_error", stats.PersistenceErrors)

		gate = stats.Check(r.config.Scrape.MinSuccessRatio)
		return stats.Counters(), gate, runErr
	})
	return gate, err
}

// enrichInput is the parsed spreadsheet and override document.
type enrichInput struct {
	aggregate *spreadsheet.Aggregate
	overrides *matching.OverrideStore
}

func (r *Runner) loadEnrichInput() (*enrichInput, error) {
	rows, err := spreadsheet.ReadFile(r.config.SpreadsheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	aggregate := spreadsheet.ParseRows(rows, r.logger)

	overrides, err := matching.LoadOverrides(r.config.OverridesPath, r.logger)
	if err != nil {
		return nil, err
	}

	r.logger.Info("loaded enrichment input",
		"spreadsheet", r.config.SpreadsheetPath,
		"products", aggregate.Len(),
		"problems", aggregate.ProblemCount(),
		"skipped_rows", len(aggregate.SkippedRows),
		"overrides", overrides.Len())
	return &enrichInput{aggregate: aggregate, overrides: overrides}, nil
}

func (r *Runner) enrichPhase(ctx context.Context, summary *Summary, input *enrichInput, inputErr error) (gate, err error) {
	err = r.phase(ctx, PhaseEnrich, summary, func() (map[string]int, error, error) {
		if inputErr != nil {
			return nil, nil, inputErr
		}

		products, err := r.catalog.ListProducts(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list catalog: %w", err)
		}

		matcher, err := matching.NewMatcher(products, input.overrides,
			matching.WithThreshold(r.config.Threshold),
			matching.WithLogger(r.logger))
		if err != nil {
			return nil, nil, err
		}
		matches, unresolved := matcher.MatchAll(input.aggregate)

		enricher, err := enrich.NewEnricher(r.catalog,
			enrich.WithTargetMatchRate(r.config.TargetMatchRate),
			enrich.WithLogger(r.logger))
		if err != nil {
			return nil, nil, err
		}

		report, runErr := enricher.Enrich(ctx, matches, unresolved, input.aggregate)
		if report == nil {
			return nil, nil, runErr
		}
		summary.Enrich = report
		r.metrics.AddMatches(string(core.MatchSourceManual), report.Manual)
		r.metrics.AddMatches(string(core.MatchSourceFuzzy), report.Fuzzy)
		r.metrics.AddMatches("unresolved", report.Unresolved)
		r.metrics.SetMatchRate(report.MatchRate())

		if r.config.UnresolvedPath != "" {
			if err := enrich.WriteUnresolved(r.config.UnresolvedPath, unresolved, r.now()); err != nil {
				report.ArtifactErrors++
				r.logger.Error("failed to write unresolved products", "path", r.config.UnresolvedPath, "err", err)
			} else {
				r.logger.Info("wrote unresolved products", "path", r.config.UnresolvedPath, "count", len(unresolved))
			}
		}

		gate = report.Check(r.config.MinMatched)
		return report.Counters(), gate, runErr
	})
	return gate, err
}

func (r *Runner) embedPhase(ctx context.Context, summary *Summary) (gate, err error) {
	err = r.phase(ctx, PhaseEmbed, summary, func() (map[string]int, error, error) {
		if r.provider == nil {
			return nil, nil, ErrAIProviderRequired
		}

		runner, err := embedding.NewRunner(r.catalog, r.provider.Embedder(), r.config.Embed,
			embedding.WithProgress(r.progress),
			embedding.WithLogger(r.logger))
		if err != nil {
			return nil, nil, err
		}

		stats, runErr := runner.Run(ctx)
		summary.Embed = stats
		r.metrics.AddEmbeddings("stored", stats.Stored)
		r.metrics.AddEmbeddings("skipped", stats.Skipped)
		r.metrics.AddEmbeddings("failed", len(stats.Errors))

		gate = stats.Check()
		return stats.Counters(), gate, runErr
	})
	return gate, err
}

// phaseFunc returns the phase counters, the completeness gate result and
// any error that aborted the phase.
type phaseFunc func() (counters map[string]int, gate error, err error)

// phase runs fn, converts a panic into an error, and records the outcome.
func (r *Runner) phase(ctx context.Context, name string, summary *Summary, fn phaseFunc) (err error) {
	run := &core.RunSummary{Phase: name, StartedAt: r.now().UTC()}
	start := time.Now()

	var gate error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPhasePanic, name, rec)
		}

		run.FinishedAt = r.now().UTC()
		run.Succeeded = gate == nil && err == nil
		if msg := errors.Join(err, gate); msg != nil {
			run.Message = msg.Error()
		}
		if run.Counters == nil {
			run.Counters = map[string]int{}
		}
		r.metrics.ObservePhase(name, time.Since(start))

		if saveErr := r.runs.SaveRunSummary(context.WithoutCancel(ctx), run); saveErr != nil {
			r.logger.Error("failed to save run summary", "phase", name, "err", saveErr)
		}
		summary.Runs = append(summary.Runs, run)

		if err != nil {
			r.logger.Error("phase failed", "phase", name, "err", err)
		} else if gate != nil {
			r.logger.Warn("phase incomplete", "phase", name, "err", gate)
		}
	}()

	run.Counters, gate, err = fn()
	return err
}
