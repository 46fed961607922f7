package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/spreadsheet"
	"github.com/poiesic/catalogit/storage"
	"github.com/poiesic/catalogit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository is a minimal CatalogRepository for failure injection.
type mockRepository struct {
	storage.CatalogRepository
	UpsertFunc func(ctx context.Context, url string, patch *storage.ProductPatch, strategy storage.MergeStrategy) (*core.Product, error)
}

func (m *mockRepository) Upsert(ctx context.Context, url string, patch *storage.ProductPatch, strategy storage.MergeStrategy) (*core.Product, error) {
	return m.UpsertFunc(ctx, url, patch, strategy)
}

func setupCatalog(t *testing.T) (*badger.CatalogRepository, []*core.Product) {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ctx := context.Background()
	for _, detail := range []*core.ProductDetail{
		{URL: "https://portal.evi360.nl/products/1", Name: "Herstelcoaching (6-9 maanden)", Description: "Coaching"},
		{URL: "https://portal.evi360.nl/products/2", Name: "Mediation", Description: "Bemiddeling"},
		{URL: "https://portal.evi360.nl/products/3", Name: "Bedrijfsfysiotherapie", Description: "Fysio"},
	} {
		_, err := repo.UpsertScraped(ctx, detail, time.Now())
		require.NoError(t, err)
	}

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	return repo, products
}

func productByName(products []*core.Product, name string) *core.Product {
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func testAggregate() *spreadsheet.Aggregate {
	return spreadsheet.ParseRows([]spreadsheet.Row{
		{Line: 2, Problem: "Burn-out", Category: "Psychisch", Product: "Herstelcoaching"},
		{Line: 3, Problem: "Overspannen", Category: "Psychisch", Product: "Herstelcoaching"},
		{Line: 4, Problem: "Conflict", Category: "Sociaal", Product: "Mediation"},
		{Line: 5, Problem: "Onbekend", Category: "Overig", Product: "Vertrouwenspersoon"},
	}, nil)
}

func TestBuildPatch(t *testing.T) {
	entry := &core.AggregatedProblem{ProductName: "Prod", Problems: []string{"P1", "P2"}, Category: "Cat1"}
	match := &core.MatchResult{CSVProduct: "Prod", Score: 0.91, Source: core.MatchSourceFuzzy}

	patch := BuildPatch(match, entry)

	assert.Equal(t, core.Metadata{
		"problem_mappings": []string{"P1", "P2"},
		"csv_category":     "Cat1",
		"match_score":      0.91,
		"match_source":     "fuzzy",
	}, patch.Metadata)
	require.NotNil(t, patch.Category)
	assert.Equal(t, "Cat1", *patch.Category)

	entry.Problems[0] = "changed"
	assert.Equal(t, []string{"P1", "P2"}, patch.Metadata["problem_mappings"])
}

func TestEnrich(t *testing.T) {
	repo, products := setupCatalog(t)
	ctx := context.Background()
	agg := testAggregate()

	matches := []*core.MatchResult{
		{CSVProduct: "Herstelcoaching", Product: productByName(products, "Herstelcoaching (6-9 maanden)"), Score: 1.0, Source: core.MatchSourceFuzzy},
		{CSVProduct: "Mediation", Product: productByName(products, "Mediation"), Score: 1.0, Source: core.MatchSourceManual},
	}
	unresolved := []*core.UnresolvedEntry{{CSVProduct: "Vertrouwenspersoon"}}

	enricher, err := NewEnricher(repo)
	require.NoError(t, err)

	report, err := enricher.Enrich(ctx, matches, unresolved, agg)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Manual)
	assert.Equal(t, 1, report.Fuzzy)
	assert.Equal(t, 1, report.Unresolved)
	assert.Equal(t, 2, report.Updated)
	assert.InDelta(t, 2.0/3.0, report.MatchRate(), 1e-9)

	coaching, err := repo.GetProduct(ctx, "https://portal.evi360.nl/products/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Burn-out", "Overspannen"}, coaching.Metadata.ProblemMappings())
	assert.Equal(t, "Psychisch", coaching.Category)
	assert.Equal(t, "Psychisch", coaching.Metadata[core.MetadataCSVCategory])
	assert.Equal(t, "fuzzy", coaching.Metadata[core.MetadataMatchSource])

	fysio, err := repo.GetProduct(ctx, "https://portal.evi360.nl/products/3")
	require.NoError(t, err)
	assert.NotContains(t, fysio.Metadata, core.MetadataProblemMappings)
}

func TestEnrich_Idempotent(t *testing.T) {
	repo, products := setupCatalog(t)
	ctx := context.Background()
	agg := testAggregate()
	url := "https://portal.evi360.nl/products/2"

	_, err := repo.Upsert(ctx, url, &storage.ProductPatch{
		Metadata: core.Metadata{core.MetadataContactForPrice: true},
	}, storage.MergeShallow)
	require.NoError(t, err)

	matches := []*core.MatchResult{
		{CSVProduct: "Mediation", Product: productByName(products, "Mediation"), Score: 1.0, Source: core.MatchSourceManual},
	}
	enricher, err := NewEnricher(repo)
	require.NoError(t, err)

	_, err = enricher.Enrich(ctx, matches, nil, agg)
	require.NoError(t, err)
	first, err := repo.GetProduct(ctx, url)
	require.NoError(t, err)
	firstMetadata, err := storage.MarshalMetadata(first.Metadata)
	require.NoError(t, err)

	_, err = enricher.Enrich(ctx, matches, nil, agg)
	require.NoError(t, err)
	second, err := repo.GetProduct(ctx, url)
	require.NoError(t, err)
	secondMetadata, err := storage.MarshalMetadata(second.Metadata)
	require.NoError(t, err)

	assert.Equal(t, string(firstMetadata), string(secondMetadata))
	assert.Equal(t, true, second.Metadata[core.MetadataContactForPrice], "unrelated keys survive")
	assert.Equal(t, []string{"Conflict"}, second.Metadata.ProblemMappings())
}

func TestEnrich_ReplacesProblemMappings(t *testing.T) {
	repo, products := setupCatalog(t)
	ctx := context.Background()
	url := "https://portal.evi360.nl/products/2"

	_, err := repo.Upsert(ctx, url, &storage.ProductPatch{
		Metadata: core.Metadata{core.MetadataProblemMappings: []string{"Oud probleem"}},
	}, storage.MergeShallow)
	require.NoError(t, err)

	enricher, err := NewEnricher(repo)
	require.NoError(t, err)
	_, err = enricher.Enrich(ctx, []*core.MatchResult{
		{CSVProduct: "Mediation", Product: productByName(products, "Mediation"), Score: 1.0, Source: core.MatchSourceManual},
	}, nil, testAggregate())
	require.NoError(t, err)

	product, err := repo.GetProduct(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []string{"Conflict"}, product.Metadata.ProblemMappings())
}

func TestEnrich_PersistenceErrorsDoNotAbort(t *testing.T) {
	var calls []string
	repo := &mockRepository{
		UpsertFunc: func(ctx context.Context, url string, patch *storage.ProductPatch, strategy storage.MergeStrategy) (*core.Product, error) {
			calls = append(calls, url)
			assert.Equal(t, storage.MergeShallow, strategy)
			if url == "u1" {
				return nil, errors.New("connection reset")
			}
			return &core.Product{URL: url}, nil
		},
	}

	enricher, err := NewEnricher(repo)
	require.NoError(t, err)

	report, err := enricher.Enrich(context.Background(), []*core.MatchResult{
		{CSVProduct: "Herstelcoaching", Product: &core.Product{URL: "u1"}, Score: 0.9, Source: core.MatchSourceFuzzy},
		{CSVProduct: "Mediation", Product: &core.Product{URL: "u2"}, Score: 1.0, Source: core.MatchSourceManual},
	}, nil, testAggregate())
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2"}, calls)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.PersistenceErrors)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], core.ErrPersistence)
}

func TestEnrich_Cancelled(t *testing.T) {
	repo, products := setupCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enricher, err := NewEnricher(repo)
	require.NoError(t, err)
	_, err = enricher.Enrich(ctx, []*core.MatchResult{
		{CSVProduct: "Mediation", Product: productByName(products, "Mediation"), Score: 1.0, Source: core.MatchSourceManual},
	}, nil, testAggregate())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrich_RequiresAggregate(t *testing.T) {
	repo, _ := setupCatalog(t)
	enricher, err := NewEnricher(repo)
	require.NoError(t, err)

	_, err = enricher.Enrich(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrAggregateRequired)
}

func TestNewEnricher_RequiresRepository(t *testing.T) {
	_, err := NewEnricher(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestCoverage(t *testing.T) {
	repo, products := setupCatalog(t)
	ctx := context.Background()

	enricher, err := NewEnricher(repo)
	require.NoError(t, err)
	_, err = enricher.Enrich(ctx, []*core.MatchResult{
		{CSVProduct: "Mediation", Product: productByName(products, "Mediation"), Score: 1.0, Source: core.MatchSourceManual},
	}, nil, testAggregate())
	require.NoError(t, err)

	coverage, err := enricher.Coverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, coverage.Enriched)
	assert.Equal(t, 3, coverage.Total)
	require.Len(t, coverage.Samples, 1)
	assert.Equal(t, "Mediation", coverage.Samples[0].Name)
	assert.InDelta(t, 1.0/3.0, coverage.Rate(), 1e-9)
}

func TestReport(t *testing.T) {
	r := &Report{Total: 10, Matched: 8, Updated: 7}
	assert.Equal(t, 0.8, r.MatchRate())
	assert.NoError(t, r.Check(0))
	assert.NoError(t, r.Check(7))

	err := r.Check(8)
	var ce *core.CompletenessError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "enrich", ce.Phase)
	assert.Equal(t, 7, ce.Achieved)
	assert.Equal(t, 8, ce.Required)

	assert.Equal(t, 0.0, (&Report{}).MatchRate())
	assert.Equal(t, 7, r.Counters()["updated"])
}
