package faults

import (
	"fmt"
	"time"
)

// Error is a typed domain error with an explicit classification. Components
// that already know why an operation failed wrap the cause in an *Error so
// the classifier does not have to guess from message text.
type Error struct {
	Category   Category
	Retryable  bool
	RetryAfter time.Duration
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Classification returns the error's own retry verdict.
func (e *Error) Classification() Classification {
	return Classification{
		Retryable:  e.Retryable,
		Category:   e.Category,
		RetryAfter: e.RetryAfter,
	}
}

// RateLimited reports that an admission-control limit was hit. The caller
// should reschedule after the given delay rather than busy-retry.
func RateLimited(msg string, retryAfter time.Duration) *Error {
	if retryAfter <= 0 {
		retryAfter = DefaultRateLimitDelay
	}
	return &Error{
		Category:   CategoryRateLimit,
		Retryable:  true,
		RetryAfter: retryAfter,
		Message:    msg,
	}
}

// Unavailable reports a dependency outage, including a rejecting circuit
// breaker. Retryable with a suggested cool-down.
func Unavailable(msg string, retryAfter time.Duration, cause error) *Error {
	return &Error{
		Category:   CategoryServiceUnavailable,
		Retryable:  true,
		RetryAfter: retryAfter,
		Message:    msg,
		Cause:      cause,
	}
}

// AuthExpired reports a credential failure that a token refresh may fix.
func AuthExpired(msg string, cause error) *Error {
	return &Error{
		Category:  CategoryAuth,
		Retryable: true,
		Message:   msg,
		Cause:     cause,
	}
}

// ReauthRequired reports a credential failure that demands the user
// re-authenticate. Never retryable: no number of attempts will fix it.
func ReauthRequired(msg string) *Error {
	return &Error{
		Category:  CategoryAuth,
		Retryable: false,
		Message:   msg,
	}
}

// Validation reports invalid input. Not retryable.
func Validation(msg string) *Error {
	return &Error{
		Category:  CategoryValidation,
		Retryable: false,
		Message:   msg,
	}
}

// ContentPolicy reports a platform policy rejection. Not retryable.
func ContentPolicy(msg string) *Error {
	return &Error{
		Category:  CategoryContentPolicy,
		Retryable: false,
		Message:   msg,
	}
}

// NotFound reports a missing entity. Not retryable.
func NotFound(msg string) *Error {
	return &Error{
		Category:  CategoryNotFound,
		Retryable: false,
		Message:   msg,
	}
}

// QuotaExceeded reports an exhausted account quota. Not retryable until the
// quota resets out of band.
func QuotaExceeded(msg string) *Error {
	return &Error{
		Category:  CategoryQuotaExceeded,
		Retryable: false,
		Message:   msg,
	}
}
