package lockmgr

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	"os"
	"path/filepath"
)

// generateOwnerID creates a new unique owner ID
func generateOwnerID() string {
	return uuid.NewString()
}

// lockFilePath returns the path of the lock file of a shard
func lockFilePath(dir string, shardID uint16) string {
	return filepath.Join(dir, fmt.Sprintf("%d.lock", shardID))
}

// lockFile opens the lock file of a shard and blocks until an exclusive flock is held
func lockFile(dir string, shardID uint16) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir %s: %w", dir, err)
	}

	path := lockFilePath(dir, shardID)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return f, nil
}

// unlockFile releases the flock and closes the lock file
func unlockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to unlock %s: %w", f.Name(), err)
	}
	return nil
}
