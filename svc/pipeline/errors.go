package pipeline

import "errors"

var (
	// ErrDependencyNil is returned when a required collaborator is missing.
	ErrDependencyNil = errors.New("required dependency is nil")

	// ErrConnectorNotFound is returned when no connector is registered for
	// a platform.
	ErrConnectorNotFound = errors.New("no connector registered for platform")

	// ErrNoVariations is returned when generation produced no variation
	// that survived validation and duplicate filtering.
	ErrNoVariations = errors.New("no usable content variations produced")
)
