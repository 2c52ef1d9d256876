// Package pipeline hosts the four background job processors that move
// content from uploaded material to published post with metrics: Analyze,
// Generate, Publish and Analytics.
//
// Every processor is idempotent against queue redelivery: a terminal-status
// check precedes any side effect. Failures propagate unmodified so the
// queue's classifier-driven retry policy decides what happens next; only
// non-retryable failures additionally flip the affected record to FAILED.
//
// External calls run through per-dependency circuit breakers, and publishing
// consults the per-account rate limiter before touching a platform.
package pipeline
