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


package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
)

const productColumns = `id, url, name, description, price, category, subcategory, embedding,
	embedding_input_hash, compliance_tags, metadata, source, last_scraped_at, created_at, updated_at`

const (
	upsertScrapedQuery = `INSERT INTO products (id, url, name, description, price, source, last_scraped_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (url) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	price = EXCLUDED.price,
	last_scraped_at = EXCLUDED.last_scraped_at,
	updated_at = now()
RETURNING (xmax = 0) AS inserted`

	mergeShallowQuery = `UPDATE products SET
	metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
	category = COALESCE($3, category),
	updated_at = now()
WHERE url = $1
RETURNING ` + productColumns

	mergeReplaceQuery = `UPDATE products SET
	metadata = $2::jsonb,
	category = COALESCE($3, category),
	updated_at = now()
WHERE url = $1
RETURNING ` + productColumns

	storeEmbeddingQuery = `UPDATE products SET embedding = $2, embedding_input_hash = $3, updated_at = now() WHERE url = $1`

	getProductQuery = `SELECT ` + productColumns + ` FROM products WHERE url = $1`

	listProductsQuery = `SELECT ` + productColumns + ` FROM products ORDER BY name, url`

	findSimilarQuery = `SELECT ` + productColumns + `, 1 - (embedding <=> $1) AS similarity
FROM products
WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
ORDER BY embedding <=> $1
LIMIT $3`

	saveRunQuery = `INSERT INTO pipeline_runs (phase, summary, finished_at) VALUES ($1, $2, $3)
ON CONFLICT (phase) DO UPDATE SET summary = EXCLUDED.summary, finished_at = EXCLUDED.finished_at`

	lastRunQuery = `SELECT summary FROM pipeline_runs WHERE phase = $1`
)

// Store implements storage.CatalogRepository and storage.RunRepository on
// PostgreSQL with the pgvector extension.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ storage.CatalogRepository = (*Store)(nil)
	_ storage.RunRepository     = (*Store)(nil)
)

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "postgres-store"),
	}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertScraped inserts a product or refreshes its scraper-owned fields.
func (s *Store) UpsertScraped(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error) {
	if err := core.ValidateDetail(detail); err != nil {
		return false, err
	}

	var inserted bool
	err := s.db.QueryRowContext(ctx, upsertScrapedQuery,
		uuid.New(),
		detail.URL,
		detail.Name,
		detail.Description,
		nullString(detail.Price),
		core.DefaultSource,
		scrapedAt.UTC(),
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", detail.URL, err)
	}
	return inserted, nil
}

// Upsert applies an enrichment patch to an existing product.
func (s *Store) Upsert(ctx context.Context, url string, patch *storage.ProductPatch, strategy storage.MergeStrategy) (*core.Product, error) {
	if patch == nil {
		patch = &storage.ProductPatch{}
	}

	var query string
	switch strategy {
	case storage.MergeShallow:
		query = mergeShallowQuery
	case storage.MergeReplace:
		query = mergeReplaceQuery
	default:
		return nil, fmt.Errorf("%w: %d", storage.ErrUnknownMergeStrategy, strategy)
	}

	metadata, err := storage.MarshalMetadata(patch.Metadata)
	if err != nil {
		return nil, err
	}
	var category sql.NullString
	if patch.Category != nil {
		category = sql.NullString{String: *patch.Category, Valid: true}
	}

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, url, string(metadata), category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", url, err)
	}
	return product, nil
}

// StoreEmbedding replaces the embedding of an existing product.
func (s *Store) StoreEmbedding(ctx context.Context, url string, vector []float32, inputHash string) error {
	res, err := s.db.ExecContext(ctx, storeEmbeddingQuery, url, pgvector.NewVector(vector), nullString(inputHash))
	if err != nil {
		return fmt.Errorf("store embedding %s: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetProduct retrieves a single product by URL.
func (s *Store) GetProduct(ctx context.Context, url string) (*core.Product, error) {
	product, err := scanProduct(s.db.QueryRowContext(ctx, getProductQuery, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return product, err
}

// ListProducts returns every product ordered by name, then URL.
func (s *Store) ListProducts(ctx context.Context) ([]*core.Product, error) {
	rows, err := s.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*core.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// FindSimilar ranks embedded products by cosine similarity to vector.
func (s *Store) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	rows, err := s.db.QueryContext(ctx, findSimilarQuery, pgvector.NewVector(vector), minSimilarity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.SearchResult
	for rows.Next() {
		var similarity float64
		product, err := scanProduct(rows, &similarity)
		if err != nil {
			return nil, err
		}
		results = append(results, &core.SearchResult{Product: product, Score: float32(similarity)})
	}
	return results, rows.Err()
}

// SaveRunSummary stores summary as the latest run of its phase.
func (s *Store) SaveRunSummary(ctx context.Context, summary *core.RunSummary) error {
	if summary.FinishedAt.IsZero() {
		summary.FinishedAt = time.Now().UTC()
	}
	data, err := storage.MarshalRunSummary(summary)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, saveRunQuery, summary.Phase, string(data), summary.FinishedAt)
	return err
}

// LastRunSummary retrieves the latest summary for a phase.
// Returns nil, nil if the phase has never run.
func (s *Store) LastRunSummary(ctx context.Context, phase string) (*core.RunSummary, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, lastRunQuery, phase).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalRunSummary(data)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct reads the productColumns projection plus any extra trailing columns.
func scanProduct(row rowScanner, extra ...any) (*core.Product, error) {
	var (
		p           core.Product
		price       sql.NullString
		category    sql.NullString
		subcategory sql.NullString
		embedding   []byte
		inputHash   sql.NullString
		tags        pq.StringArray
		metadata    []byte
		scrapedAt   sql.NullTime
	)

	dest := []any{
		&p.Id, &p.URL, &p.Name, &p.Description, &price, &category, &subcategory, &embedding,
		&inputHash, &tags, &metadata, &p.Source, &scrapedAt, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	p.Price = price.String
	p.Category = category.String
	p.Subcategory = subcategory.String
	p.EmbeddingInputHash = inputHash.String
	p.ComplianceTags = []string(tags)
	if scrapedAt.Valid {
		p.LastScrapedAt = scrapedAt.Time
	}
	if embedding != nil {
		var v pgvector.Vector
		if err := v.Scan(embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		p.Embedding = v.Slice()
	}

	md, err := storage.UnmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	p.Metadata = md
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
