// Package embedding generates and stores semantic embeddings for catalog
// products.
//
// The embedding input of a product is its description, followed by its
// problem mappings when it has any (ComposeText). The Generator calls the
// embedding provider once per product with retry and exponential backoff,
// and a failure for one product never aborts the batch. The Runner walks
// the whole catalog in batches, stores every generated vector together with
// the hash of its input text, and reports progress.
//
// With Config.SkipUnchanged the Runner only recomputes embeddings whose
// input text changed since they were stored.
package embedding
