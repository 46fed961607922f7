// Package mock provides test doubles for the ai interfaces.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.Vectors = map[string][]float32{"burn-out": {1, 0, 0}}
//	provider := mock.NewMockProviderWithEmbedder(embedder)
//
// Texts without a pinned vector embed to deterministic unit vectors derived
// from an FNV hash, so identical text always embeds identically.
package mock
