package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/core"
)

// Result is the outcome of embedding one product. Exactly one of Vector
// and Err is set.
type Result struct {
	Product *core.Product
	Text    string
	Hash    string
	Vector  []float32
	Err     error
}

// Generator produces embeddings for products, one provider call per product.
type Generator struct {
	embedder       ai.Embedder
	dimensions     int
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewGenerator creates a new generator.
// dimensions: required vector width; other widths are rejected
// maxRetries: maximum number of attempts per product
// retryBaseDelay: base delay for exponential backoff
func NewGenerator(embedder ai.Embedder, dimensions, maxRetries int, retryBaseDelay time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if dimensions <= 0 {
		dimensions = core.EmbeddingDimensions
	}
	return &Generator{
		embedder:       embedder,
		dimensions:     dimensions,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         logger.With("component", "embedding-generator"),
	}
}

// Generate embeds each product in order. A failure is recorded on the
// product's Result and the remaining products are still processed.
func (g *Generator) Generate(ctx context.Context, products []*core.Product) []Result {
	results := make([]Result, len(products))
	for i, product := range products {
		results[i] = g.generateOne(ctx, product)
	}
	return results
}

func (g *Generator) generateOne(ctx context.Context, product *core.Product) Result {
	text := ComposeText(product)
	result := Result{
		Product: product,
		Text:    text,
		Hash:    core.ContentHash(text),
	}

	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = g.embedder.EmbedText(ctx, text)
		return err
	}, g.maxRetries, g.retryBaseDelay)
	if errors.Is(err, ai.ErrDimensionMismatch) {
		result.Err = core.NewValidationError(product.URL, fmt.Errorf("%w: %w", core.ErrDimensionMismatch, err))
		g.logger.Warn("rejected embedding", "url", product.URL, "err", err)
		return result
	}
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", ErrProvider, product.URL, err)
		g.logger.Error("failed to generate embedding", "url", product.URL, "attempts", g.maxRetries, "err", err)
		return result
	}

	if err := core.ValidateEmbedding(vector, g.dimensions); err != nil {
		result.Err = core.NewValidationError(product.URL, err)
		g.logger.Warn("rejected embedding", "url", product.URL, "err", err)
		return result
	}

	result.Vector = core.NormalizeVector(vector)
	return result
}
