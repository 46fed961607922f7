package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/catalogit"
	"github.com/poiesic/catalogit/config"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/pipeline"
	"github.com/poiesic/catalogit/scrape"
	"github.com/poiesic/catalogit/search"
	"github.com/poiesic/catalogit/storage/postgres"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		installLogger(level)
	}

	if c.IsSet("workers") {
		cfg.Scrape.Workers = c.Int("workers")
	}
	if c.IsSet("request-delay") {
		cfg.Scrape.RequestDelay = c.Duration("request-delay")
	}
	if c.IsSet("browser") {
		cfg.Scrape.Browser = c.Bool("browser")
	}
	if c.IsSet("spreadsheet") {
		cfg.Enrich.SpreadsheetPath = c.String("spreadsheet")
	}
	if c.IsSet("overrides") {
		cfg.Enrich.OverridesPath = c.String("overrides")
	}
	if c.IsSet("threshold") {
		cfg.Enrich.Threshold = c.Float64("threshold")
	}
	if c.IsSet("batch-size") {
		cfg.Embed.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("skip-unchanged") {
		cfg.Embed.SkipUnchanged = c.Bool("skip-unchanged")
	}
	if c.IsSet("retry-delay") {
		cfg.Embed.RetryDelay = c.Duration("retry-delay")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openCatalog(c *cli.Context) (*catalogit.Catalog, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := catalogit.Open(c.Context, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return catalog, cfg, nil
}

// runPhases opens the catalog, runs fn and prints the summary.
// needsProvider creates the embedding provider up front.
func runPhases(c *cli.Context, needsProvider bool, fn func(*pipeline.Runner) (*pipeline.Summary, error)) error {
	catalog, cfg, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	opts := []pipeline.Option{pipeline.WithProgress(c.App.ErrWriter)}
	if cfg.Scrape.Browser {
		fetcher := scrape.NewBrowserFetcher(cfg.Scrape.Timeout, cfg.Scrape.UserAgent)
		defer fetcher.Close()
		opts = append(opts, pipeline.WithFetcher(fetcher))
	}

	runner, err := catalog.NewRunner(needsProvider, opts...)
	if err != nil {
		return err
	}

	summary, runErr := fn(runner)
	printSummary(c.App.Writer, summary)

	if err := catalog.Metrics().Push(c.Context); err != nil {
		slog.Warn("failed to push metrics", "err", err)
	}
	return runErr
}

func scrapeCommand(c *cli.Context) error {
	return runPhases(c, false, func(r *pipeline.Runner) (*pipeline.Summary, error) {
		return r.RunScrape(c.Context)
	})
}

func enrichCommand(c *cli.Context) error {
	return runPhases(c, false, func(r *pipeline.Runner) (*pipeline.Summary, error) {
		return r.RunEnrich(c.Context)
	})
}

func embedCommand(c *cli.Context) error {
	return runPhases(c, true, func(r *pipeline.Runner) (*pipeline.Summary, error) {
		return r.RunEmbed(c.Context)
	})
}

func runCommand(c *cli.Context) error {
	return runPhases(c, true, func(r *pipeline.Runner) (*pipeline.Summary, error) {
		return r.RunAll(c.Context)
	})
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("search query is required")
	}

	catalog, _, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	searcher, err := catalog.NewSearcher()
	if err != nil {
		return err
	}
	results, err := searcher.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}
	views := search.PresentAll(results)

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(c.App.Writer, "No matching products found")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Found %d products\n", len(views))
	for i, v := range views {
		fmt.Fprintf(c.App.Writer, "%d. %s [%.2f] %s\n", i+1, v.Name, v.Similarity, v.URL)
		fmt.Fprintf(c.App.Writer, "   %s | %s\n", v.Category, v.Price)
		if len(v.ProblemMappings) > 0 {
			fmt.Fprintf(c.App.Writer, "   Problems: %s\n", strings.Join(v.ProblemMappings, "; "))
		}
	}
	return nil
}

func migrateCommand(c *cli.Context) error {
	direction := c.Args().First()
	if direction != "up" && direction != "down" {
		return fmt.Errorf("migration direction must be up or down, got %q", direction)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations apply to the postgres driver only, configured driver is %q", cfg.Database.Driver)
	}

	if err := postgres.Migrate(cfg.Database.URL, direction, c.Int("steps")); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Migrations applied (%s)\n", direction)
	return nil
}

func statusCommand(c *cli.Context) error {
	catalog, _, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	runner, err := catalog.NewRunner(false)
	if err != nil {
		return err
	}
	status, err := runner.Status(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, phase := range pipeline.Phases {
		run, ok := status.LastRuns[phase]
		if !ok {
			fmt.Fprintf(w, "%-7s never run\n", phase)
			continue
		}
		fmt.Fprintf(w, "%-7s %s at %s: %s\n", phase, outcome(run), run.FinishedAt.Format(time.RFC3339), formatCounters(run.Counters))
	}

	coverage := status.Coverage
	fmt.Fprintf(w, "coverage: %d/%d products enriched (%.1f%%)\n", coverage.Enriched, coverage.Total, coverage.Rate()*100)
	for _, p := range coverage.Samples {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, strings.Join(p.Metadata.ProblemMappings(), "; "))
	}
	return nil
}

func printSummary(w io.Writer, summary *pipeline.Summary) {
	if summary == nil {
		return
	}
	for _, run := range summary.Runs {
		fmt.Fprintf(w, "%-7s %s: %s\n", run.Phase, outcome(run), formatCounters(run.Counters))
		if run.Message != "" {
			fmt.Fprintf(w, "        %s\n", run.Message)
		}
	}
	if summary.Enrich != nil {
		fmt.Fprintf(w, "match rate: %.1f%%\n", summary.Enrich.MatchRate()*100)
	}
}

func outcome(run *core.RunSummary) string {
	if run.Succeeded {
		return "ok"
	}
	return "FAILED"
}

func formatCounters(counters map[string]int) string {
	parts := make([]string, 0, len(counters))
	for _, key := range slices.Sorted(maps.Keys(counters)) {
		parts = append(parts, fmt.Sprintf("%s=%d", key, counters[key]))
	}
	return strings.Join(parts, " ")
}
