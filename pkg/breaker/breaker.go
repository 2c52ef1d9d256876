package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State represents the breaker's current mode.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// CircuitBreaker is a failure-isolation state machine for one dependency.
// Do is the sole entry point; callers must not bypass it.
type CircuitBreaker struct {
	name string

	mu                sync.Mutex
	state             State
	failures          int
	halfOpenSuccesses int
	lastFailure       time.Time

	failureThreshold     int
	halfOpenSuccessCount int
	resetTimeout         time.Duration
	onStateChange        func(name string, from, to State)
	now                  func() time.Time
}

// New creates a breaker for the named dependency.
func New(name string, opts ...Option) *CircuitBreaker {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &CircuitBreaker{
		name:                 name,
		state:                StateClosed,
		failureThreshold:     options.failureThreshold,
		halfOpenSuccessCount: options.halfOpenSuccessCount,
		resetTimeout:         options.resetTimeout,
		onStateChange:        options.onStateChange,
		now:                  options.now,
	}
}

// Do executes fn through the breaker. When the breaker is open and the
// cool-down has not elapsed, fn is never invoked and Do returns an error
// wrapping ErrOpen that carries the remaining cool-down as a suggested delay.
func (cb *CircuitBreaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterCall(err)
	return err
}

// beforeCall checks admission and performs the lazy open -> half-open
// transition once the reset timeout has elapsed.
func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}

	elapsed := cb.now().Sub(cb.lastFailure)
	if elapsed <= cb.resetTimeout {
		return &OpenError{
			Name:       cb.name,
			Failures:   cb.failures,
			RetryAfter: cb.resetTimeout - elapsed,
		}
	}

	cb.transition(StateHalfOpen)
	cb.halfOpenSuccesses = 0
	return nil
}

// afterCall records the outcome and applies the transition rules.
func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.onFailure()
		return
	}
	cb.onSuccess()
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// A single probe failure reopens immediately.
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		// Failures must be consecutive to trip the breaker.
		cb.failures = 0
	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.halfOpenSuccessCount {
			cb.transition(StateClosed)
			cb.failures = 0
		}
	}
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// Name returns the dependency name this breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current state without forcing a transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns the current state, consecutive failure count and the time of
// the last recorded failure.
func (cb *CircuitBreaker) Stats() (state State, failures int, lastFailure time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failures, cb.lastFailure
}

// OpenError is returned by Do when the breaker rejects a call. It wraps
// ErrOpen so callers can match with errors.Is, and carries the remaining
// cool-down so they can reschedule instead of busy-retrying.
type OpenError struct {
	Name       string
	Failures   int
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open after %d consecutive failures, retry in %s",
		e.Name, e.Failures, e.RetryAfter.Round(time.Millisecond))
}

func (e *OpenError) Unwrap() error {
	return ErrOpen
}
