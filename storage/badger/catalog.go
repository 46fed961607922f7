package badger

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
)

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend *Backend
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	return &CatalogRepository{
		backend: backend,
	}, nil
}

// Close releases resources. The backend is owned by the caller.
func (r *CatalogRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *CatalogRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// UpsertScraped inserts a product or refreshes its scraper-owned fields.
func (r *CatalogRepository) UpsertScraped(ctx context.Context, detail *core.ProductDetail, scrapedAt time.Time) (bool, error) {
	if err := core.ValidateDetail(detail); err != nil {
		return false, err
	}

	inserted := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProductKey(detail.URL)
		product, err := readProduct(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if product == nil {
			inserted = true
			product = &core.Product{
				Id:        uuid.New(),
				URL:       detail.URL,
				Metadata:  core.Metadata{},
				Source:    core.DefaultSource,
				CreatedAt: now,
			}
		}
		product.Name = detail.Name
		product.Description = detail.Description
		product.Price = detail.Price
		product.LastScrapedAt = scrapedAt.UTC()
		product.UpdatedAt = now

		if err := writeProduct(tx, key, product); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return inserted, err
}

// Upsert applies an enrichment patch to an existing product.
func (r *CatalogRepository) Upsert(ctx context.Context, url string, patch *storage.ProductPatch, strategy storage.MergeStrategy) (*core.Product, error) {
	if patch == nil {
		patch = &storage.ProductPatch{}
	}

	var result *core.Product
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProductKey(url)
		product, err := readProduct(tx, key)
		if err != nil {
			return err
		}
		if product == nil {
			return storage.ErrNotFound
		}

		merged, err := storage.MergeMetadata(product.Metadata, patch.Metadata, strategy)
		if err != nil {
			return err
		}
		product.Metadata = merged
		if patch.Category != nil {
			product.Category = *patch.Category
		}
		product.UpdatedAt = time.Now().UTC()

		if err := writeProduct(tx, key, product); err != nil {
			return err
		}
		result = product
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StoreEmbedding replaces the embedding of an existing product.
func (r *CatalogRepository) StoreEmbedding(ctx context.Context, url string, vector []float32, inputHash string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProductKey(url)
		product, err := readProduct(tx, key)
		if err != nil {
			return err
		}
		if product == nil {
			return storage.ErrNotFound
		}

		product.Embedding = slices.Clone(vector)
		product.EmbeddingInputHash = inputHash
		product.UpdatedAt = time.Now().UTC()

		if err := writeProduct(tx, key, product); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetProduct retrieves a single product by URL.
func (r *CatalogRepository) GetProduct(ctx context.Context, url string) (*core.Product, error) {
	var result *core.Product
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProduct(tx, makeProductKey(url))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListProducts returns every product ordered by name, then URL.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]*core.Product, error) {
	var products []*core.Product
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.forEachProduct(tx, func(product *core.Product) error {
			products = append(products, product)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(products, func(a, b *core.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.URL, b.URL))
	})
	return products, nil
}

func readProduct(tx *badger.Txn, key []byte) (*core.Product, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var product *core.Product
	err = item.Value(func(val []byte) error {
		var err error
		product, err = storage.UnmarshalProduct(val)
		return err
	})
	return product, err
}

func writeProduct(tx *badger.Txn, key []byte, product *core.Product) error {
	value, err := storage.MarshalProduct(product)
	if err != nil {
		return err
	}
	return tx.Set(key, value)
}
