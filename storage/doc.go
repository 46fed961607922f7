// Package storage provides the storage abstraction layer for catalogit.
//
// This package defines repository interfaces that decouple the catalog
// persistence from the pipeline phases. Two backends implement them:
//
//   - storage/postgres: PostgreSQL with the pgvector extension (production)
//   - storage/badger: embedded BadgerDB (local runs and tests)
//
// # Field Ownership
//
// Each pipeline phase owns a disjoint set of product fields and writes them
// through its own repository method:
//
//   - UpsertScraped: name, description, price, last_scraped_at
//   - Upsert: metadata and category
//   - StoreEmbedding: embedding and embedding_input_hash
//
// A phase never overwrites another phase's fields, so re-scraping keeps
// enrichment results and re-enriching keeps embeddings until they are
// recomputed.
//
// # Merge Semantics
//
// Upsert takes an explicit MergeStrategy. MergeShallow is a key-level
// overwrite: keys present in the patch replace the stored value wholesale,
// keys absent from the patch survive untouched. Applying the same patch
// twice yields identical metadata.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Each write is its own
// transaction.
package storage
