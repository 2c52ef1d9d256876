package breaker

import "time"

// Option is a functional option for configuring a circuit breaker.
type Option func(*options)

type options struct {
	failureThreshold     int
	halfOpenSuccessCount int
	resetTimeout         time.Duration
	onStateChange        func(name string, from, to State)
	now                  func() time.Time
}

func defaultOptions() *options {
	return &options{
		failureThreshold:     5,
		halfOpenSuccessCount: 2,
		resetTimeout:         60 * time.Second,
		now:                  time.Now,
	}
}

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.failureThreshold = n
		}
	}
}

// WithHalfOpenSuccessCount sets how many consecutive probe successes are
// required to close the breaker from half-open.
func WithHalfOpenSuccessCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.halfOpenSuccessCount = n
		}
	}
}

// WithResetTimeout sets the cool-down before an open breaker allows a probe.
func WithResetTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.resetTimeout = d
		}
	}
}

// WithStateChangeHook registers a callback invoked on every state
// transition, typically for structured logging.
func WithStateChangeHook(fn func(name string, from, to State)) Option {
	return func(o *options) {
		if fn != nil {
			o.onStateChange = fn
		}
	}
}

// WithClock overrides the time source. Used by tests to drive the
// open -> half-open transition without sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
