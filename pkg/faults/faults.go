package faults

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// Category identifies the failure class of an error.
type Category string

const (
	CategoryNetwork            Category = "network"
	CategoryRateLimit          Category = "rate_limit"
	CategoryAuth               Category = "auth"
	CategoryValidation         Category = "validation"
	CategoryContentPolicy      Category = "content_policy"
	CategoryNotFound           Category = "not_found"
	CategoryQuotaExceeded      Category = "quota_exceeded"
	CategoryServiceUnavailable Category = "service_unavailable"
	CategoryUnknown            Category = "unknown"
)

// DefaultRateLimitDelay is the suggested delay when a provider reports rate
// limiting without an explicit retry-after value.
const DefaultRateLimitDelay = 60 * time.Second

// Classification is the retry policy verdict for a single error.
type Classification struct {
	Retryable  bool
	Category   Category
	RetryAfter time.Duration // zero means "use the queue's default backoff"
}

// Classify maps an error to its retry policy. It never returns an error and
// is safe to call with nil, which classifies as unknown/retryable.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Retryable: true, Category: CategoryUnknown}
	}

	// Typed domain errors carry their own verdict.
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Classification()
	}

	if isConnectionFailure(err) {
		return Classification{Retryable: true, Category: CategoryNetwork}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.Status, err.Error())
	}

	return classifyMessage(err.Error())
}

// isConnectionFailure recognizes low-level transport errors: timeouts,
// connection resets and refusals, and DNS resolution failures.
func isConnectionFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// classifyStatus maps an HTTP status code to a classification. The message
// is consulted only where the status alone is ambiguous (403).
func classifyStatus(status int, msg string) Classification {
	lower := strings.ToLower(msg)

	switch {
	case status == 429:
		return Classification{Retryable: true, Category: CategoryRateLimit, RetryAfter: DefaultRateLimitDelay}
	case status == 502 || status == 503 || status == 504:
		return Classification{Retryable: true, Category: CategoryServiceUnavailable}
	case status == 401:
		// A token refresh may fix it, so the first retry is worth taking.
		return Classification{Retryable: true, Category: CategoryAuth}
	case status == 403:
		if strings.Contains(lower, "policy") || strings.Contains(lower, "violat") {
			return Classification{Retryable: false, Category: CategoryContentPolicy}
		}
		return Classification{Retryable: false, Category: CategoryAuth}
	case status == 404:
		return Classification{Retryable: false, Category: CategoryNotFound}
	case status == 400:
		return Classification{Retryable: false, Category: CategoryValidation}
	case status >= 500:
		return Classification{Retryable: true, Category: CategoryServiceUnavailable}
	}

	return classifyMessage(msg)
}

// classifyMessage applies the documented heuristics to untyped error text.
func classifyMessage(msg string) Classification {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return Classification{Retryable: true, Category: CategoryRateLimit, RetryAfter: DefaultRateLimitDelay}
	case strings.Contains(lower, "service unavailable") || strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "gateway timeout"):
		return Classification{Retryable: true, Category: CategoryServiceUnavailable}
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid token") ||
		strings.Contains(lower, "token expired") || strings.Contains(lower, "authentication"):
		return Classification{Retryable: true, Category: CategoryAuth}
	case strings.Contains(lower, "not found"):
		return Classification{Retryable: false, Category: CategoryNotFound}
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "validation") ||
		strings.Contains(lower, "malformed") || strings.Contains(lower, "bad request"):
		return Classification{Retryable: false, Category: CategoryValidation}
	case strings.Contains(lower, "quota") || strings.Contains(lower, "limit exceeded"):
		return Classification{Retryable: false, Category: CategoryQuotaExceeded}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "connection") ||
		strings.Contains(lower, "network"):
		return Classification{Retryable: true, Category: CategoryNetwork}
	}

	// Fail open: transient failures we cannot recognize still get retried.
	return Classification{Retryable: true, Category: CategoryUnknown}
}
