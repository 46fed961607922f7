// Package ai provides abstractions for the AI services used in catalogit.
//
// The pipeline only needs text embeddings: the embedding phase turns each
// product's description and problem mappings into a vector, and product
// search embeds the user query the same way.
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Owns the embedder and reports the expected vector width
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types. Test constructors (mock.NewMockEmbedder) return concrete
// types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "burn-out begeleiding")
package ai
