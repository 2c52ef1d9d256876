// Package throttle provides per-account admission control for platform API
// calls.
//
// Each (platform, account) pair is tracked by three independent fixed-window
// counters: one minute, one hour, one day, each with its own
// platform-specific limit. Check reads all three without incrementing and
// denies if any window is at or above its limit, reporting which window
// failed and how long to wait for the window boundary. Record increments all
// three in one atomic batch and refreshes each counter's expiry to slightly
// longer than its window, so idle counters self-expire.
//
// Check and Record are deliberately separate calls. The check-then-act pair
// is not atomic, which can overshoot a limit by a small margin under high
// concurrency; at this traffic scale that is an accepted approximation, not
// a token bucket.
package throttle
