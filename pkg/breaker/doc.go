// Package breaker implements a per-dependency circuit breaker.
//
// A breaker guards calls to one flaky external dependency (a social platform
// API, the AI provider). After a configurable number of consecutive failures
// it opens and rejects calls immediately with ErrOpen, sparing the dependency
// and the caller. After a cool-down the next call is allowed through as a
// probe (half-open); enough consecutive probe successes close the breaker
// again, a single probe failure reopens it.
//
// State is intentionally per-process. Each worker instance independently
// stops calling a failing dependency; fleet-wide coordination is not worth
// the shared-state complexity here.
//
// Breakers are grouped in an explicitly constructed Registry so one
// platform's outage never blocks another platform, and so tests can create
// isolated instances:
//
//	reg := breaker.NewRegistry(breaker.WithFailureThreshold(5))
//	err := reg.Get("instagram").Do(ctx, func(ctx context.Context) error {
//		return connector.Publish(ctx, post)
//	})
//	if errors.Is(err, breaker.ErrOpen) {
//		// reschedule instead of busy-retrying
//	}
package breaker
