package scrape

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds configuration for the portal scraper.
type Config struct {
	// BaseURL is the portal origin, without trailing slash
	BaseURL string

	// ListingPath is the path of the page linking to every product
	ListingPath string

	// GenericTitles are headings that identify a non-product page
	GenericTitles []string

	// RequestDelay is the minimum time between two requests
	RequestDelay time.Duration

	// Workers is the number of detail pages fetched concurrently
	Workers int

	// Timeout bounds a single page fetch
	Timeout time.Duration

	// UserAgent is sent with every request
	UserAgent string

	// MinSuccessRatio is the fraction of discovered products that must be stored
	MinSuccessRatio float64

	// MinDescriptionLength is the length below which a description is logged as short
	MinDescriptionLength int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:              "https://portal.evi360.nl",
		ListingPath:          "/products",
		GenericTitles:        []string{"EVI 360", "EVI360", "Portal"},
		RequestDelay:         500 * time.Millisecond,
		Workers:              1,
		Timeout:              30 * time.Second,
		UserAgent:            "catalogit/1.0",
		MinSuccessRatio:      0.9,
		MinDescriptionLength: 100,
	}
}

// ListingURL returns the absolute URL of the listing page.
func (c *Config) ListingURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.ListingPath
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base url %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("%w: request delay must not be negative", ErrInvalidConfig)
	}
	if c.MinSuccessRatio < 0 || c.MinSuccessRatio > 1 {
		return fmt.Errorf("%w: min success ratio must be between 0 and 1", ErrInvalidConfig)
	}
	return nil
}
