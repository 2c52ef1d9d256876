package scheduler

import "errors"

// ErrDependencyNil is returned when a scheduler is constructed without one
// of its required collaborators.
var ErrDependencyNil = errors.New("scheduler dependency cannot be nil")
