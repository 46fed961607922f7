package storage

import (
	"context"
	"time"

	"github.com/poiesic/catalogit/core"
)

// MergeStrategy controls how a metadata patch is combined with stored metadata.
type MergeStrategy int

const (
	// MergeShallow overwrites patch keys and leaves every other stored key untouched.
	// Values are replaced wholesale, so list values are never appended or unioned.
	MergeShallow MergeStrategy = iota
	// MergeReplace discards stored metadata and keeps exactly the patch.
	MergeReplace
)

func (s MergeStrategy) String() string {
	switch s {
	case MergeShallow:
		return "shallow"
	case MergeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ProductPatch holds the enrichment-owned fields to write to a product.
// A nil Category leaves the stored category unchanged.
type ProductPatch struct {
	Metadata core.Metadata
	Category *string
}

// CatalogRepository is the persistence boundary for catalog products.
// Every product is keyed by its canonical URL.
// Implementations must be thread-safe and support concurrent access.
type CatalogRepository interface {
	// UpsertScraped inserts or refreshes the scraper-owned fields of a product:
	// name, description, price and last_scraped_at. Metadata, category and
	// embedding are never modified. Returns true if the product was new.
	UpsertScraped(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error)

	// Upsert applies an enrichment patch to the product stored under url.
	// Returns ErrNotFound if no product has that URL.
	Upsert(ctx context.Context, url string, patch *ProductPatch, strategy MergeStrategy) (*core.Product, error)

	// StoreEmbedding replaces the embedding of the product stored under url
	// and records the hash of the text it was computed from.
	// Returns ErrNotFound if no product has that URL.
	StoreEmbedding(ctx context.Context, url string, vector []float32, inputHash string) error

	// GetProduct retrieves a product by URL.
	// Returns ErrNotFound if the product doesn't exist.
	GetProduct(ctx context.Context, url string) (*core.Product, error)

	// ListProducts returns every product ordered by name, then URL.
	ListProducts(ctx context.Context) ([]*core.Product, error)

	// FindSimilar finds products whose embedding is similar to vector.
	// Returns products with similarity >= minSimilarity, up to limit results,
	// ordered by similarity (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases resources held by the repository.
	Close() error
}

// RunRepository persists the outcome of pipeline phases.
type RunRepository interface {
	// SaveRunSummary stores summary as the latest run of its phase.
	SaveRunSummary(ctx context.Context, summary *core.RunSummary) error

	// LastRunSummary retrieves the latest run of phase.
	// Returns nil, nil if the phase has never run.
	LastRunSummary(ctx context.Context, phase string) (*core.RunSummary, error)
}
