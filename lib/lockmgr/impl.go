package lockmgr

import (
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"os"
	"sync"
)

var Logger = logger.GetLogger("lockmgr")

// shardLock is the lock state of a single shard.
// mu is held for the whole time the lock is acquired, state guards owner and file.
type shardLock struct {
	mu    sync.Mutex
	state sync.Mutex
	owner string
	file  *os.File
}

type lockMgrImpl struct {
	dir   string
	locks *xsync.MapOf[uint16, *shardLock]
}

// NewLockManager creates a new shard lock manager.
// If lockDir is not empty, every acquired lock is additionally backed by an
// exclusive flock on <lockDir>/<shard>.lock, which excludes other processes.
func NewLockManager(lockDir string) ILockManager {
	return &lockMgrImpl{
		dir:   lockDir,
		locks: xsync.NewMapOf[uint16, *shardLock](),
	}
}

func (lm *lockMgrImpl) AcquireLock(shardID uint16) (string, error) {
	l, _ := lm.locks.LoadOrCompute(shardID, func() *shardLock {
		return &shardLock{}
	})

	// in-process exclusion first, so only one goroutine per process waits on the flock
	l.mu.Lock()

	var file *os.File
	if lm.dir != "" {
		f, err := lockFile(lm.dir, shardID)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		file = f
	}

	ownerID := generateOwnerID()

	l.state.Lock()
	l.owner = ownerID
	l.file = file
	l.state.Unlock()

	Logger.Debugf("acquired lock for shard %d (owner %s)", shardID, ownerID)
	return ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(shardID uint16, ownerID string) (bool, error) {
	l, ok := lm.locks.Load(shardID)
	if !ok {
		return true, nil
	}

	l.state.Lock()
	if l.owner == "" {
		l.state.Unlock()
		return true, nil
	}
	// Check if the lock is owned by the caller
	if l.owner != ownerID {
		l.state.Unlock()
		return false, nil
	}

	file := l.file
	l.owner = ""
	l.file = nil
	l.state.Unlock()

	var err error
	if file != nil {
		err = unlockFile(file)
	}
	l.mu.Unlock()

	Logger.Debugf("released lock for shard %d (owner %s)", shardID, ownerID)
	return err == nil, err
}
