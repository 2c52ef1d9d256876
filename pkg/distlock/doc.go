// Package distlock provides a cross-process mutual exclusion primitive built
// on Redis.
//
// A lock is a key holding the acquirer's owner token with a TTL. Acquire is
// an atomic set-if-not-exists; Release and Extend are Lua
// compare-owner-then-act scripts, so a process can never release or extend a
// lock that expired and was reacquired by someone else.
//
// The TTL is a safety net, not the release mechanism: holders release
// explicitly when done, and the TTL only bounds how long a crashed holder
// can strand the lock.
//
// Failure mode: if Redis is unreachable, Acquire returns false. Callers are
// written as "not acquired, skip this run", so failing closed degrades to
// skipped ticks rather than duplicate ones.
//
//	lock := distlock.New(redisClient)
//	if !lock.Acquire(ctx, "scheduler:content", 55*time.Second) {
//		return // another instance is running
//	}
//	defer lock.Release(ctx, "scheduler:content")
package distlock
