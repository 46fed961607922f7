package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
	"github.com/poiesic/catalogit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository is a CatalogRepository test double with function fields.
type mockRepository struct {
	storage.CatalogRepository
	UpsertScrapedFunc func(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error)
}

func (m *mockRepository) UpsertScraped(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error) {
	return m.UpsertScrapedFunc(ctx, detail, scrapedAt)
}

func productPage(name, description string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1>
<div class="platform-product-description"><p>%s</p></div>
</body></html>`, name, description)
}

// newPortal serves a listing with three products. Product 2 has no heading.
func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<main>
<a href="/products/1">Een</a>
<a href="/products/1/add-to-cart">Bestel</a>
<a href="/products/2">Twee</a>
<a href="/products/3">Drie</a>
</main>`)
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Herstelcoaching", "Coaching bij burn-out"))
	})
	mux.HandleFunc("/products/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Pagina zonder titel</p></body></html>`)
	})
	mux.HandleFunc("/products/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Mediation", "Bemiddeling bij conflicten"))
	})
	mux.HandleFunc("/products/1/add-to-cart", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("action link must not be fetched")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) *Config {
	config := DefaultConfig()
	config.BaseURL = baseURL
	config.RequestDelay = 0
	config.Timeout = 5 * time.Second
	return config
}

func newTestRepo(t *testing.T) *badger.CatalogRepository {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func TestRun_ExtractionFailureIsIsolated(t *testing.T) {
	server := newPortal(t)
	repo := newTestRepo(t)

	scraper, err := NewScraper(repo, testConfig(server.URL))
	require.NoError(t, err)

	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Found)
	assert.Equal(t, 2, stats.Scraped)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 1, stats.ExtractionErrors)
	assert.Equal(t, 0, stats.FetchErrors)
	assert.Equal(t, 1, stats.ErrorCount())
	require.Len(t, stats.Errors, 1)
	assert.ErrorContains(t, stats.Errors[0], server.URL+"/products/2")

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Herstelcoaching", products[0].Name)
	assert.Equal(t, "Mediation", products[1].Name)
	assert.Equal(t, server.URL+"/products/3", products[1].URL)

	assert.Error(t, stats.Check(0.9))
	assert.NoError(t, stats.Check(0.6))
}

func TestRun_RescrapePreservesEnrichment(t *testing.T) {
	server := newPortal(t)
	repo := newTestRepo(t)
	ctx := context.Background()

	scraper, err := NewScraper(repo, testConfig(server.URL))
	require.NoError(t, err)
	_, err = scraper.Run(ctx)
	require.NoError(t, err)

	url := server.URL + "/products/1"
	category := "Psychisch"
	_, err = repo.Upsert(ctx, url, &storage.ProductPatch{
		Metadata: core.Metadata{core.MetadataProblemMappings: []string{"Burn-out"}},
		Category: &category,
	}, storage.MergeShallow)
	require.NoError(t, err)
	require.NoError(t, repo.StoreEmbedding(ctx, url, []float32{1, 0}, "hash"))

	stats, err := scraper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 2, stats.Updated)

	product, err := repo.GetProduct(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []string{"Burn-out"}, product.Metadata.ProblemMappings())
	assert.Equal(t, "Psychisch", product.Category)
	assert.Equal(t, []float32{1, 0}, product.Embedding)
}

func TestRun_FetchErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/products/1">Een</a><a href="/products/2">Twee</a>`)
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/products/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Mediation", "Bemiddeling"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scraper, err := NewScraper(newTestRepo(t), testConfig(server.URL))
	require.NoError(t, err)

	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Found)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.FetchErrors)
	assert.ErrorIs(t, stats.Errors[0], core.ErrFetch)
	assert.ErrorIs(t, stats.Errors[0], ErrUnexpectedStatus)
}

func TestRun_ListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scraper, err := NewScraper(newTestRepo(t), testConfig(server.URL))
	require.NoError(t, err)

	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Found)
	assert.Equal(t, 1, stats.FetchErrors)

	var ce *core.CompletenessError
	require.ErrorAs(t, stats.Check(0.9), &ce)
	assert.Equal(t, 1, ce.Required)
}

func TestRun_PersistenceErrors(t *testing.T) {
	server := newPortal(t)
	repo := &mockRepository{
		UpsertScrapedFunc: func(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error) {
			if detail.Name == "Mediation" {
				return false, errors.New("connection refused")
			}
			return true, nil
		},
	}

	scraper, err := NewScraper(repo, testConfig(server.URL))
	require.NoError(t, err)

	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scraped)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.PersistenceErrors)
	assert.Equal(t, 1, stats.ExtractionErrors)
}

func TestRun_ScrapedCountsExtractedPagesWhenStoreFails(t *testing.T) {
	server := newPortal(t)
	repo := &mockRepository{
		UpsertScrapedFunc: func(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error) {
			return false, errors.New("database is read-only")
		},
	}

	scraper, err := NewScraper(repo, testConfig(server.URL))
	require.NoError(t, err)

	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Found)
	assert.Equal(t, 2, stats.Scraped)
	assert.Equal(t, 0, stats.Inserted)
	assert.Greater(t, stats.Scraped, stats.Inserted)
	assert.Equal(t, 2, stats.PersistenceErrors)
	assert.Equal(t, 2, stats.Counters()["scraped"])

	var completeness *core.CompletenessError
	require.ErrorAs(t, stats.Check(0.5), &completeness)
	assert.Equal(t, 0, completeness.Achieved)
}

func TestRun_UsesClock(t *testing.T) {
	server := newPortal(t)
	fixed := time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var seen []time.Time
	repo := &mockRepository{
		UpsertScrapedFunc: func(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error) {
			mu.Lock()
			seen = append(seen, scrapedAt)
			mu.Unlock()
			return true, nil
		},
	}

	scraper, err := NewScraper(repo, testConfig(server.URL), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	_, err = scraper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Time{fixed, fixed}, seen)
}

func TestRun_ConcurrentWorkers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		for i := 1; i <= 12; i++ {
			fmt.Fprintf(w, `<a href="/products/%d">P%d</a>`, i, i)
		}
	})
	mux.HandleFunc("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Product "+r.PathValue("id"), "Beschrijving"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	config := testConfig(server.URL)
	config.Workers = 4
	repo := newTestRepo(t)

	scraper, err := NewScraper(repo, config)
	require.NoError(t, err)
	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, stats.Found)
	assert.Equal(t, 12, stats.Inserted)
	assert.NoError(t, stats.Check(1.0))

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 12)
}

func TestRun_RequestDelay(t *testing.T) {
	server := newPortal(t)
	config := testConfig(server.URL)
	config.RequestDelay = 50 * time.Millisecond

	scraper, err := NewScraper(newTestRepo(t), config)
	require.NoError(t, err)

	start := time.Now()
	_, err = scraper.Run(context.Background())
	require.NoError(t, err)

	// listing plus three detail pages
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestRun_Cancelled(t *testing.T) {
	server := newPortal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper, err := NewScraper(newTestRepo(t), testConfig(server.URL))
	require.NoError(t, err)

	stats, err := scraper.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Inserted)
}

func TestNewScraper_Validation(t *testing.T) {
	_, err := NewScraper(nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	config := DefaultConfig()
	config.Workers = 0
	_, err = NewScraper(newTestRepo(t), config)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	config = DefaultConfig()
	config.BaseURL = "portal.evi360.nl"
	_, err = NewScraper(newTestRepo(t), config)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewScraper(newTestRepo(t), nil, WithFetcher(nil))
	assert.ErrorIs(t, err, ErrFetcherRequired)
}

func TestStatsCheck(t *testing.T) {
	tests := []struct {
		name     string
		found    int
		inserted int
		ratio    float64
		ok       bool
	}{
		{"all stored", 76, 76, 0.9, true},
		{"exactly at ratio", 10, 9, 0.9, true},
		{"below ratio", 10, 8, 0.9, false},
		{"ceil applies", 76, 68, 0.9, false},
		{"ceil boundary", 76, 69, 0.9, true},
		{"nothing found", 0, 0, 0.9, false},
		{"nothing found zero ratio", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &Stats{Found: tt.found, Inserted: tt.inserted}
			err := stats.Check(tt.ratio)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrCompleteness)
			}
		})
	}
}
