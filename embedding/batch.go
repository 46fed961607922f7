package embedding

import (
	"context"

	"github.com/poiesic/catalogit/core"
)

// DefaultBatchSize is the default number of products per batch.
const DefaultBatchSize = 10

// forEachBatch calls fn for consecutive batches of products.
// Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func forEachBatch(ctx context.Context, products []*core.Product, batchSize int, fn func([]*core.Product) error) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for i := 0; i < len(products); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+batchSize, len(products))
		if err := fn(products[i:end]); err != nil {
			return err
		}
	}
	return nil
}
