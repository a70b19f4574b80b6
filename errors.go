package flock

import "errors"

var (
	// ErrInvalidValue is returned when a velocity component would become NaN.
	// A tick failing with it leaves the flock in a corrupted state.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidAxis is returned when an axis is outside the active dimensions.
	ErrInvalidAxis = errors.New("invalid axis")

	// ErrInvalidConfig is returned by New for an unusable configuration.
	ErrInvalidConfig = errors.New("invalid config")
)
