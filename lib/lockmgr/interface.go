package lockmgr

// ILockManager defines the interface for a shard lock provider.
type ILockManager interface {
	// AcquireLock blocks until the exclusive writer lock of the shard is held.
	// Return an owner ID that must be passed to ReleaseLock, and an error if any.
	AcquireLock(shardID uint16) (ownerID string, err error)

	// ReleaseLock releases the lock of the given shard.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return True if the lock is not held.
	ReleaseLock(shardID uint16, ownerID string) (ok bool, err error)
}
