package pipeline

import (
	"github.com/poiesic/catalogit/embedding"
	"github.com/poiesic/catalogit/enrich"
	"github.com/poiesic/catalogit/matching"
	"github.com/poiesic/catalogit/scrape"
)

// Config holds the settings of every phase.
type Config struct {
	Scrape *scrape.Config
	Embed  *embedding.Config

	// SpreadsheetPath is the intervention spreadsheet read by enrichment
	SpreadsheetPath string

	// OverridesPath is the manual mapping document; a missing file means no overrides
	OverridesPath string

	// UnresolvedPath receives the unresolved products; empty disables the artifact
	UnresolvedPath string

	// Threshold is the minimum fuzzy similarity of a match
	Threshold float64

	// TargetMatchRate is the match rate below which a warning is logged
	TargetMatchRate float64

	// MinMatched is the enrichment completeness gate; 0 disables it
	MinMatched int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scrape:          scrape.DefaultConfig(),
		Embed:           embedding.DefaultConfig(),
		SpreadsheetPath: "data/interventies.csv",
		OverridesPath:   "manual_product_mappings.json",
		UnresolvedPath:  "unresolved_products.json",
		Threshold:       matching.DefaultThreshold,
		TargetMatchRate: enrich.DefaultTargetMatchRate,
	}
}
