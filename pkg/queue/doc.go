// Package queue provides the durable job queue behind the content pipeline:
// at-least-once delayed task delivery with classifier-driven retries.
//
// Three components interact only through small repository interfaces:
//
//   - Enqueuer  — adds one-time tasks, with optional delay and an
//     idempotency key that suppresses duplicate enqueues
//   - Scheduler — converts periodic Schedule definitions into tasks
//   - Worker    — claims pending tasks and dispatches them to Handlers
//     with a bounded pool of goroutines per job type
//
// Storage backends implement the repository interfaces; PostgresStorage is
// the production one (FOR UPDATE SKIP LOCKED claims), MemoryStorage backs
// tests and local development.
//
// # Retry policy
//
// When a handler fails, the worker classifies the error with pkg/faults.
// Non-retryable failures skip the remaining attempts and go straight to the
// dead letter queue. Retryable failures are rescheduled: with the
// classifier's suggested delay when it has one (rate limits, open circuit
// breakers), otherwise with the storage's default backoff. Tasks that
// exhaust MaxRetries land in the DLQ for manual inspection.
//
// # Redelivery
//
// A claimed task is locked for the worker's lock timeout. A worker that
// crashes or stalls simply fails to complete the task; lock expiry makes it
// claimable again. Handlers must therefore be safe to re-run from the top.
package queue
