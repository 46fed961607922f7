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


package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/catalogit/config"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "catalogit",
		Usage: "Scrape, enrich and embed the product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file (default ./" + config.DefaultConfigFile + " if present)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "scrape",
				Usage:  "Scrape the portal into the catalog",
				Action: scrapeCommand,
				Flags:  scrapeFlags(),
			},
			{
				Name:   "enrich",
				Usage:  "Match the intervention spreadsheet and enrich catalog products",
				Action: enrichCommand,
				Flags:  enrichFlags(),
			},
			{
				Name:   "embed",
				Usage:  "Generate embeddings for catalog products",
				Action: embedCommand,
				Flags:  embedFlags(),
			},
			{
				Name:   "run",
				Usage:  "Run scrape, enrich and embed in order",
				Action: runCommand,
				Flags:  append(append(scrapeFlags(), enrichFlags()...), embedFlags()...),
			},
			{
				Name:      "search",
				Usage:     "Search the catalog for products relevant to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (1-10)",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:      "migrate",
				Usage:     "Apply or roll back the PostgreSQL schema",
				ArgsUsage: "up|down",
				Action:    migrateCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Number of migrations to apply (0 for all)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the last run of each phase and enrichment coverage",
				Action: statusCommand,
			},
		},
	}
}

func scrapeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of concurrent detail page fetches",
		},
		&cli.DurationFlag{
			Name:  "request-delay",
			Usage: "Minimum delay between portal requests",
		},
		&cli.BoolFlag{
			Name:  "browser",
			Usage: "Render pages with headless Chrome",
		},
	}
}

func enrichFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "spreadsheet",
			Usage: "Path to the intervention spreadsheet (CSV)",
		},
		&cli.StringFlag{
			Name:  "overrides",
			Usage: "Path to the manual product mapping document",
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Minimum fuzzy similarity for a match (0-1)",
		},
	}
}

func embedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of products to process in each batch",
		},
		&cli.BoolFlag{
			Name:  "skip-unchanged",
			Usage: "Skip products whose embedding input has not changed",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

// setup loads .env and installs the logger.
func setup(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	level, err := config.ParseLogLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.String("log-level"))
	}
	installLogger(level)
	return nil
}

func installLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
