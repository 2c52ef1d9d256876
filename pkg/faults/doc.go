// Package faults maps arbitrary failures from third-party platforms and
// providers to a retry policy.
//
// Every error that reaches the job queue is classified into a Category with
// a retryable verdict and an optional suggested delay. The classification is
// a pure function: the same error value always yields the same result, which
// makes retry behavior deterministic and testable.
//
// Classification sources, in priority order:
//
//  1. Typed domain errors (*Error) report their own classification.
//  2. Low-level connection failures (timeouts, resets, DNS) are network
//     errors and retryable.
//  3. HTTP status codes carried by *HTTPError follow the platform-API
//     conventions (429, 5xx retryable; 4xx generally not).
//  4. Message heuristics cover providers that return untyped errors.
//  5. Everything else is unknown and retryable, so transient failures that
//     we cannot recognize still get another chance.
//
// Usage:
//
//	c := faults.Classify(err)
//	if !c.Retryable {
//		// flip the domain record to a terminal status
//	}
//	// reschedule after c.RetryAfter
package faults
