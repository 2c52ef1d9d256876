package breaker

import "errors"

// ErrOpen is returned (wrapped in *OpenError) when the breaker rejects a
// call without attempting it.
var ErrOpen = errors.New("circuit breaker is open")
