// Package lockmgr implements the per-shard writer lock used by the patch
// engine. Updating a shard is a load -> mutate -> dump sequence; two writers
// interleaving on the same shard would silently lose updates (the last dump
// wins, nothing is merged), so every writer must hold the shard's lock for the
// whole sequence.
//
// Core Functionality:
//   - Blocking lock acquisition per shard id with an owner ID
//   - Safe release operations that verify ownership
//   - Optional cross-process exclusion through flock(2) on a lock file
//
// Implementation Approach:
//
//   - In-Process: every shard id maps to a mutex stored in an xsync.MapOf.
//     The map entry is created on first use and never removed, shards are
//     bounded to 10,000 ids.
//
//   - Cross-Process: when a lock directory is configured, the holder of the
//     mutex additionally takes an exclusive flock on <dir>/<shard>.lock. The
//     kernel drops the flock when the process dies, so a crashed writer never
//     leaves a stale lock behind.
//
//   - Safe Release: ReleaseLock compares the owner ID returned by AcquireLock
//     and refuses to release a lock held by another owner.
//
// Readers never take the lock. They rely on the atomic file replacement of
// the store and observe either the old or the new shard file.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager("/opt/data/ncpr/.locks")
//
//	ownerID, err := locks.AcquireLock(1234)
//	if err != nil {
//	    // Handle error
//	}
//
//	// load, mutate and dump shard 1234
//
//	if _, err := locks.ReleaseLock(1234, ownerID); err != nil {
//	    // Handle error
//	}
package lockmgr
