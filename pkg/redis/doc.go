// Package redis establishes the shared Redis connection used by the
// distributed lock and the rate limiter.
//
// Connect retries until the server is reachable or attempts are exhausted,
// so worker instances can start before Redis during rolling deploys.
// Healthcheck returns a probe function for readiness endpoints.
package redis
