package config

import "errors"

var (
	// ErrConfigFile is returned when the configuration file cannot be read or decoded.
	ErrConfigFile = errors.New("failed to read configuration")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)
