package scrape

import "errors"

var (
	// ErrRepositoryRequired is returned when a catalog repository is not provided.
	ErrRepositoryRequired = errors.New("catalog repository required")

	// ErrFetcherRequired is returned when WithFetcher is given a nil fetcher.
	ErrFetcherRequired = errors.New("fetcher required")

	// ErrInvalidConfig is returned when the scraper configuration is unusable.
	ErrInvalidConfig = errors.New("invalid scraper configuration")

	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)
