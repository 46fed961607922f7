package enrich

import "errors"

var (
	// ErrRepositoryRequired is returned when a catalog repository is not provided.
	ErrRepositoryRequired = errors.New("catalog repository required")

	// ErrAggregateRequired is returned when matches are enriched without their aggregate.
	ErrAggregateRequired = errors.New("spreadsheet aggregate required")
)
