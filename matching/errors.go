package matching

import "errors"

var (
	// ErrInvalidThreshold is returned when a threshold lies outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

	// ErrScorerRequired is returned when WithScorer is given a nil function.
	ErrScorerRequired = errors.New("scorer required")

	// ErrInvalidOverrides is returned when the override document cannot be parsed.
	ErrInvalidOverrides = errors.New("invalid override document")
)
