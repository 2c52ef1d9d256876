package distlock

import "errors"

// ErrNotHeld is returned by Holder when the lock key does not exist.
var ErrNotHeld = errors.New("lock is not held")
