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


package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/embedding"
	"github.com/poiesic/catalogit/enrich"
	"github.com/poiesic/catalogit/matching"
	"github.com/poiesic/catalogit/scrape"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CATALOGIT_SCRAPE_WORKERS.
const EnvPrefix = "CATALOGIT"

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "catalogit.yaml"

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Config holds all configuration for a pipeline run.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"database"`
	AI       AIConfig       `mapstructure:"ai"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Embed    EmbedConfig    `mapstructure:"embed"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig selects and locates the catalog store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres or badger
	URL    string `mapstructure:"url"`
	Path   string `mapstructure:"path"` // badger directory, empty for in-memory
}

// AIConfig configures the embedding provider.
type AIConfig struct {
	Host       string `mapstructure:"host"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ScrapeConfig configures the portal scraper.
type ScrapeConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	ListingPath          string        `mapstructure:"listing_path"`
	GenericTitles        []string      `mapstructure:"generic_titles"`
	RequestDelay         time.Duration `mapstructure:"request_delay"`
	Workers              int           `mapstructure:"workers"`
	Timeout              time.Duration `mapstructure:"timeout"`
	UserAgent            string        `mapstructure:"user_agent"`
	MinSuccessRatio      float64       `mapstructure:"min_success_ratio"`
	MinDescriptionLength int           `mapstructure:"min_description_length"`
	Browser              bool          `mapstructure:"browser"` // render pages with headless Chrome
}

// EnrichConfig configures spreadsheet matching and enrichment.
type EnrichConfig struct {
	SpreadsheetPath string  `mapstructure:"spreadsheet_path"`
	OverridesPath   string  `mapstructure:"overrides_path"`
	UnresolvedPath  string  `mapstructure:"unresolved_path"`
	Threshold       float64 `mapstructure:"threshold"`
	TargetMatchRate float64 `mapstructure:"target_match_rate"`
	MinMatched      int     `mapstructure:"min_matched"` // 0 disables the gate
}

// EmbedConfig configures embedding generation.
type EmbedConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	ReportInterval int           `mapstructure:"report_interval"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	SkipUnchanged  bool          `mapstructure:"skip_unchanged"`
}

// MetricsConfig configures run metrics.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Load reads configuration from path, the environment and defaults.
// With an empty path, DefaultConfigFile is used if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Prefixed names take precedence over the conventional ones.
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	aiDefaults := ai.DefaultConfig()
	scrapeDefaults := scrape.DefaultConfig()
	embedDefaults := embedding.DefaultConfig()

	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "")

	v.SetDefault("ai.host", aiDefaults.EmbeddingHost)
	v.SetDefault("ai.model", aiDefaults.EmbeddingModel)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.dimensions", aiDefaults.Dimensions)

	v.SetDefault("scrape.base_url", scrapeDefaults.BaseURL)
	v.SetDefault("scrape.listing_path", scrapeDefaults.ListingPath)
	v.SetDefault("scrape.generic_titles", scrapeDefaults.GenericTitles)
	v.SetDefault("scrape.request_delay", scrapeDefaults.RequestDelay)
	v.SetDefault("scrape.workers", scrapeDefaults.Workers)
	v.SetDefault("scrape.timeout", scrapeDefaults.Timeout)
	v.SetDefault("scrape.user_agent", scrapeDefaults.UserAgent)
	v.SetDefault("scrape.min_success_ratio", scrapeDefaults.MinSuccessRatio)
	v.SetDefault("scrape.min_description_length", scrapeDefaults.MinDescriptionLength)
	v.SetDefault("scrape.browser", false)

	v.SetDefault("enrich.spreadsheet_path", "data/interventies.csv")
	v.SetDefault("enrich.overrides_path", "manual_product_mappings.json")
	v.SetDefault("enrich.unresolved_path", "unresolved_products.json")
	v.SetDefault("enrich.threshold", matching.DefaultThreshold)
	v.SetDefault("enrich.target_match_rate", enrich.DefaultTargetMatchRate)
	v.SetDefault("enrich.min_matched", 0)

	v.SetDefault("embed.batch_size", embedDefaults.BatchSize)
	v.SetDefault("embed.report_interval", embedDefaults.ReportInterval)
	v.SetDefault("embed.max_retries", embedDefaults.MaxRetries)
	v.SetDefault("embed.retry_delay", embedDefaults.RetryDelay)
	v.SetDefault("embed.skip_unchanged", false)

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "catalogit")
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return fmt.Errorf("%w: database.url required for the postgres driver", ErrInvalidConfig)
		}
	case DriverBadger:
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Enrich.Threshold < 0 || c.Enrich.Threshold > 1 {
		return fmt.Errorf("%w: enrich.threshold must be within 0..1", ErrInvalidConfig)
	}
	if c.Enrich.MinMatched < 0 {
		return fmt.Errorf("%w: enrich.min_matched must not be negative", ErrInvalidConfig)
	}
	if err := c.ScrapeConfig().Validate(); err != nil {
		return err
	}
	if c.Embed.BatchSize <= 0 || c.Embed.MaxRetries <= 0 {
		return fmt.Errorf("%w: embed.batch_size and embed.max_retries must be positive", ErrInvalidConfig)
	}
	return nil
}

// AIConfig returns the provider configuration. The API key is not checked
// here since only embedding and search need it.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.Host),
		ai.WithEmbeddingModel(c.AI.Model),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithDimensions(c.AI.Dimensions),
	)
}

// ScrapeConfig returns the scraper configuration.
func (c *Config) ScrapeConfig() *scrape.Config {
	return &scrape.Config{
		BaseURL:              c.Scrape.BaseURL,
		ListingPath:          c.Scrape.ListingPath,
		GenericTitles:        c.Scrape.GenericTitles,
		RequestDelay:         c.Scrape.RequestDelay,
		Workers:              c.Scrape.Workers,
		Timeout:              c.Scrape.Timeout,
		UserAgent:            c.Scrape.UserAgent,
		MinSuccessRatio:      c.Scrape.MinSuccessRatio,
		MinDescriptionLength: c.Scrape.MinDescriptionLength,
	}
}

// EmbeddingConfig returns the embedding runner configuration.
func (c *Config) EmbeddingConfig() *embedding.Config {
	return &embedding.Config{
		BatchSize:      c.Embed.BatchSize,
		ReportInterval: c.Embed.ReportInterval,
		MaxRetries:     c.Embed.MaxRetries,
		RetryDelay:     c.Embed.RetryDelay,
		Dimensions:     c.AI.Dimensions,
		SkipUnchanged:  c.Embed.SkipUnchanged,
	}
}
