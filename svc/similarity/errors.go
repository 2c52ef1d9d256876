package similarity

import "errors"

var (
	// ErrProviderNil is returned when a nil embedding provider is provided
	ErrProviderNil = errors.New("embedding provider cannot be nil")

	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")
)
