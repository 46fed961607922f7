// Package openai implements ai.AIProvider on OpenAI-compatible embedding
// endpoints through langchaingo. Ollama, LocalAI and vLLM work as well as
// the OpenAI API itself; local servers accept any API key.
//
// Every vector the service returns is checked against the configured
// dimensions before it reaches the catalog, so a model swap that changes
// the vector width fails loudly instead of corrupting the embedding column.
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	))
//	if err != nil {
//	    return err
//	}
//	vector, err := provider.Embedder().EmbedText(ctx, "Herstelcoaching")
package openai
