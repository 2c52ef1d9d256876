package throttle

import "errors"

// ErrStoreNil is returned when a limiter is constructed without a store.
var ErrStoreNil = errors.New("store cannot be nil")
