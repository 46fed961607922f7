package embedding

import (
	"strings"

	"github.com/poiesic/catalogit/core"
)

// ComposeText builds the embedding input for a product: the description,
// then a blank line and one problem per line when problem mappings exist.
func ComposeText(product *core.Product) string {
	problems := product.Metadata.ProblemMappings()
	if len(problems) == 0 {
		return product.Description
	}
	return product.Description + "\n\n" + strings.Join(problems, "\n")
}

// InputHash returns the content hash of the composed embedding input.
func InputHash(product *core.Product) string {
	return core.ContentHash(ComposeText(product))
}

// IsCurrent reports whether product already holds an embedding computed
// from its current input text.
func IsCurrent(product *core.Product) bool {
	return len(product.Embedding) > 0 &&
		product.EmbeddingInputHash != "" &&
		product.EmbeddingInputHash == InputHash(product)
}
