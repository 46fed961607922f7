package ai

import "context"

// Embedder turns product text and search queries into vectors.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText returns the vector for a single text.
	// A blank text yields ErrEmptyInput.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts returns one vector per text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider owns the embedding service used by the embed phase and by
// product search.
type AIProvider interface {
	Embedder() Embedder

	// Dimensions is the vector width every embedding must have. It has to
	// match the width of the catalog's embedding column.
	Dimensions() int

	Close() error
}
