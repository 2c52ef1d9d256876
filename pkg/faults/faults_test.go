package faults_test

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/pkg/faults"
)

func TestClassify_HTTPStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		msg       string
		category  faults.Category
		retryable bool
	}{
		{400, "bad request", faults.CategoryValidation, false},
		{401, "unauthorized", faults.CategoryAuth, true},
		{403, "forbidden", faults.CategoryAuth, false},
		{403, "content violates community guidelines policy", faults.CategoryContentPolicy, false},
		{404, "not found", faults.CategoryNotFound, false},
		{429, "too many requests", faults.CategoryRateLimit, true},
		{502, "bad gateway", faults.CategoryServiceUnavailable, true},
		{503, "service unavailable", faults.CategoryServiceUnavailable, true},
		{504, "gateway timeout", faults.CategoryServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.category), func(t *testing.T) {
			t.Parallel()

			c := faults.Classify(faults.NewHTTPError(tt.status, tt.msg))
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.retryable, c.Retryable)
		})
	}
}

func TestClassify_RateLimitDelay(t *testing.T) {
	t.Parallel()

	c := faults.Classify(faults.NewHTTPError(429, "too many requests"))
	assert.Equal(t, 60*time.Second, c.RetryAfter)
}

func TestClassify_ConnectionFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"timed_out", syscall.ETIMEDOUT},
		{"reset", syscall.ECONNRESET},
		{"refused", syscall.ECONNREFUSED},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.example.com", IsNotFound: true}},
		{"wrapped_op_error", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := faults.Classify(tt.err)
			assert.Equal(t, faults.CategoryNetwork, c.Category)
			assert.True(t, c.Retryable)
		})
	}
}

func TestClassify_MessageHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		category  faults.Category
		retryable bool
	}{
		{"rate_limit_text", errors.New("Rate limit reached for requests"), faults.CategoryRateLimit, true},
		{"too_many_requests", errors.New("too many requests, slow down"), faults.CategoryRateLimit, true},
		{"auth_text", errors.New("invalid token provided"), faults.CategoryAuth, true},
		{"validation_text", errors.New("caption is invalid for this platform"), faults.CategoryValidation, false},
		{"quota_text", errors.New("monthly posting quota reached"), faults.CategoryQuotaExceeded, false},
		{"not_found_text", errors.New("media object not found"), faults.CategoryNotFound, false},
		{"unknown", errors.New("something exploded"), faults.CategoryUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := faults.Classify(tt.err)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.retryable, c.Retryable)
		})
	}
}

func TestClassify_DomainErrors(t *testing.T) {
	t.Parallel()

	t.Run("reauth_required_not_retryable", func(t *testing.T) {
		t.Parallel()

		// An auth error that demands re-authentication must never retry,
		// even though generic 401s are retryable.
		c := faults.Classify(faults.ReauthRequired("refresh token revoked"))
		assert.Equal(t, faults.CategoryAuth, c.Category)
		assert.False(t, c.Retryable)
	})

	t.Run("rate_limited_carries_delay", func(t *testing.T) {
		t.Parallel()

		c := faults.Classify(faults.RateLimited("minute window exhausted", 42*time.Second))
		assert.Equal(t, faults.CategoryRateLimit, c.Category)
		assert.True(t, c.Retryable)
		assert.Equal(t, 42*time.Second, c.RetryAfter)
	})

	t.Run("wrapped_domain_error_wins", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("publish failed: %w", faults.ContentPolicy("nudity detected"))
		c := faults.Classify(wrapped)
		assert.Equal(t, faults.CategoryContentPolicy, c.Category)
		assert.False(t, c.Retryable)
	})
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	err := faults.NewHTTPError(503, "service unavailable")
	first := faults.Classify(err)
	for range 10 {
		assert.Equal(t, first, faults.Classify(err))
	}
}

func TestClassify_NilFailsOpen(t *testing.T) {
	t.Parallel()

	c := faults.Classify(nil)
	assert.True(t, c.Retryable)
	assert.Equal(t, faults.CategoryUnknown, c.Category)
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, faults.UserMessage(faults.CategoryServiceUnavailable))
	assert.Contains(t, faults.UserMessage(faults.CategoryServiceUnavailable), "temporarily unavailable")

	// Unmapped categories fall back to the unknown message.
	assert.Equal(t, faults.UserMessage(faults.CategoryUnknown), faults.UserMessage(faults.Category("bogus")))
}
