package pipeline

import "errors"

var (
	// ErrCatalogRepositoryRequired is returned when a catalog repository is not provided.
	ErrCatalogRepositoryRequired = errors.New("catalog repository required")

	// ErrRunRepositoryRequired is returned when a run repository is not provided.
	ErrRunRepositoryRequired = errors.New("run repository required")

	// ErrConfigRequired is returned when the runner configuration is incomplete.
	ErrConfigRequired = errors.New("pipeline configuration required")

	// ErrAIProviderRequired is returned when embedding is requested without a provider.
	ErrAIProviderRequired = errors.New("AI provider required for embedding")

	// ErrPhasePanic is returned when a phase panics.
	ErrPhasePanic = errors.New("phase panicked")
)
