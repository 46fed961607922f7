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


package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
	"golang.org/x/time/rate"
)

// Scraper fetches the portal catalog and stores it.
type Scraper struct {
	repository storage.CatalogRepository
	config     *Config
	fetcher    Fetcher
	limiter    *rate.Limiter
	base       *url.URL
	pattern    *regexp.Regexp
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper) error

// WithFetcher replaces the page fetcher.
// Default is an HTTPFetcher built from the config.
func WithFetcher(fetcher Fetcher) Option {
	return func(s *Scraper) error {
		if fetcher == nil {
			return ErrFetcherRequired
		}
		s.fetcher = fetcher
		return nil
	}
}

// WithClock sets the time source for last_scraped_at.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) error {
		s.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScraper creates a scraper writing to repository. A nil config uses
// DefaultConfig.
func NewScraper(repository storage.CatalogRepository, config *Config, opts ...Option) (*Scraper, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	limit := rate.Inf
	if config.RequestDelay > 0 {
		limit = rate.Every(config.RequestDelay)
	}

	s := &Scraper{
		repository: repository,
		config:     config,
		limiter:    rate.NewLimiter(limit, 1),
		base:       base,
		pattern:    DetailPattern(config.BaseURL),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.fetcher == nil {
		s.fetcher = NewHTTPFetcher(config.Timeout, config.UserAgent)
	}
	s.logger = s.logger.With("component", "scraper")
	return s, nil
}

// FetchListing returns the distinct detail URLs linked from the listing page.
func (s *Scraper) FetchListing(ctx context.Context) ([]string, error) {
	listingURL := s.config.ListingURL()
	html, err := s.fetch(ctx, listingURL)
	if err != nil {
		return nil, core.NewFetchError(listingURL, err)
	}

	urls, err := ExtractProductURLs(html, s.base, s.pattern)
	if err != nil {
		return nil, core.NewExtractionError(listingURL, err)
	}
	return urls, nil
}

// FetchDetail fetches and extracts one product page.
func (s *Scraper) FetchDetail(ctx context.Context, pageURL string) (*core.ProductDetail, error) {
	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, core.NewFetchError(pageURL, err)
	}

	detail, err := ExtractDetail(html, pageURL, s.config.GenericTitles)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(detail.Description); n < s.config.MinDescriptionLength {
		s.logger.Warn("short or missing description", "url", pageURL, "product", detail.Name, "chars", n)
	}
	return detail, nil
}

// Run scrapes the whole catalog. Per-item failures are counted in Stats
// and never abort the run. Cancelling ctx stops new items from starting;
// items already in flight complete.
func (s *Scraper) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	defer func() { stats.Duration = time.Since(start) }()

	s.logger.Info("fetching product listing", "url", s.config.ListingURL())
	urls, err := s.FetchListing(ctx)
	if err != nil {
		stats.recordError(err)
		s.logger.Error("failed to fetch product listing", "err", err)
		return stats, ctx.Err()
	}
	stats.Found = len(urls)
	s.logger.Info("found product urls", "count", stats.Found)
	if stats.Found == 0 {
		s.logger.Error("no products found on listing page")
		return stats, nil
	}

	pool, err := ants.NewPool(s.config.Workers)
	if err != nil {
		return stats, err
	}
	defer pool.Release()

	itemCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for i, pageURL := range urls {
		if ctx.Err() != nil {
			s.logger.Warn("scrape cancelled", "submitted", i, "found", stats.Found)
			break
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			s.scrapeOne(itemCtx, i+1, stats.Found, pageURL, stats)
		})
		if err != nil {
			wg.Done()
			stats.recordError(core.NewFetchError(pageURL, err))
		}
	}
	wg.Wait()

	s.logger.Info("scrape complete",
		"found", stats.Found,
		"scraped", stats.Scraped,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"fetch_errors", stats.FetchErrors,
		"extraction_errors", stats.ExtractionErrors,
		"persistence_errors", stats.PersistenceErrors,
		"duration", time.Since(start).Round(time.Millisecond))
	return stats, ctx.Err()
}

func (s *Scraper) scrapeOne(ctx context.Context, idx, total int, pageURL string, stats *Stats) {
	s.logger.Debug("scraping product", "n", idx, "of", total, "url", pageURL)

	detail, err := s.FetchDetail(ctx, pageURL)
	if err != nil {
		stats.recordError(err)
		s.logger.Error("failed to scrape product", "url", pageURL, "err", err)
		return
	}
	stats.recordScraped()

	inserted, err := s.repository.UpsertScraped(ctx, detail, s.now().UTC())
	if err != nil {
		if !errors.Is(err, core.ErrValidation) && !errors.Is(err, core.ErrExtraction) {
			err = core.NewPersistenceError(pageURL, err)
		}
		stats.recordError(err)
		s.logger.Error("failed to store product", "url", pageURL, "err", err)
		return
	}
	stats.recordStored(inserted)
	s.logger.Info("stored product", "product", detail.Name, "inserted", inserted, "chars", utf8.RuneCountInString(detail.Description))
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.fetcher.Fetch(ctx, pageURL)
}
