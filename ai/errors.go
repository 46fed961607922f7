package ai

import "errors"

var (
	// ErrInvalidConfig is returned when a provider configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid ai config")

	// ErrEmptyInput is returned for blank texts; embedding APIs reject them.
	ErrEmptyInput = errors.New("empty embedding input")

	// ErrDimensionMismatch is returned when the service answers with a vector
	// of a different width than configured.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrBatchMismatch is returned when a batch call yields a different number
	// of vectors than texts were sent.
	ErrBatchMismatch = errors.New("embedding batch size mismatch")
)
