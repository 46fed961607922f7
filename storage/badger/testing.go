package badger

// NewMemoryRepositories creates in-memory catalog and run repositories for testing.
// Returns catalogRepo, runRepo, backend, and error.
// Caller must close the backend when done.
func NewMemoryRepositories() (*CatalogRepository, *RunRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	catalogRepo, err := NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	return catalogRepo, NewRunRepository(backend), backend, nil
}
