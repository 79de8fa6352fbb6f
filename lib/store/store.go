package store

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/common"
	"github.com/ValentinKolb/ncpr/lib/lockmgr"
	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var Logger = logger.GetLogger("store")

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config configures a ShardStore
type Config struct {
	// DataDir is the directory holding the shard files
	DataDir string
	// Fs is the filesystem the shard files live on (nil = the OS filesystem)
	Fs afero.Fs
	// Sync fsyncs every dumped file and the data dir around the rename
	Sync bool
	// Locks is the shard lock provider (nil = in-process locks only)
	Locks lockmgr.ILockManager
}

// --------------------------------------------------------------------------
// Shard Store
// --------------------------------------------------------------------------

// ShardStore stores one file per shard inside a data directory.
//
// Thread-safety: all methods are safe for concurrent use. Writers must hold
// the shard lock (see Lock) for a load -> mutate -> dump sequence.
type ShardStore struct {
	fs    afero.Fs
	dir   string
	sync  bool
	locks lockmgr.ILockManager
}

// New creates a shard store, creating the data directory if necessary
func New(conf Config) (*ShardStore, error) {
	if conf.DataDir == "" {
		return nil, fmt.Errorf("data dir must not be empty")
	}
	if conf.Fs == nil {
		conf.Fs = afero.NewOsFs()
	}
	if conf.Locks == nil {
		conf.Locks = lockmgr.NewLockManager("")
	}

	if err := conf.Fs.MkdirAll(conf.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", conf.DataDir, err)
	}

	return &ShardStore{
		fs:    conf.Fs,
		dir:   conf.DataDir,
		sync:  conf.Sync,
		locks: conf.Locks,
	}, nil
}

// Path returns the file path of a shard
func (s *ShardStore) Path(shardID uint16) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.dat", shardID))
}

// validShard checks the shard id range
func validShard(shardID uint16, op string) error {
	if int(shardID) >= record.ShardCount {
		return NewError(RetCInvalidShard, shardID, op, fmt.Errorf("shard id %d out of range 0-%d", shardID, record.ShardCount-1))
	}
	return nil
}

// --------------------------------------------------------------------------
// Locking
// --------------------------------------------------------------------------

// Lock blocks until the writer lock of the shard is held
func (s *ShardStore) Lock(shardID uint16) (func() error, error) {
	ownerID, err := s.locks.AcquireLock(shardID)
	if err != nil {
		return nil, NewError(RetCIOError, shardID, "lock", err)
	}

	return func() error {
		ok, err := s.locks.ReleaseLock(shardID, ownerID)
		if err != nil {
			return NewError(RetCIOError, shardID, "unlock", err)
		}
		if !ok {
			return NewError(RetCInternalError, shardID, "unlock", fmt.Errorf("lock is held by another owner"))
		}
		return nil
	}, nil
}

// --------------------------------------------------------------------------
// Load
// --------------------------------------------------------------------------

// Load returns the unpacked shard. A shard without a file is empty.
func (s *ShardStore) Load(shardID uint16) (shardfile.Buffer, error) {
	buf := shardfile.NewBuffer()
	if err := s.LoadInto(shardID, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// LoadInto replaces the content of buf with the stored shard
func (s *ShardStore) LoadInto(shardID uint16, buf shardfile.Buffer) error {
	if err := validShard(shardID, "load"); err != nil {
		return err
	}

	data, err := afero.ReadFile(s.fs, s.Path(shardID))
	if errors.Is(err, fs.ErrNotExist) {
		buf.Reset()
		common.Counter(common.MetricShardLoadMissing).Inc()
		Logger.Debugf("shard %d has no file yet, starting empty", shardID)
		return nil
	}
	if err != nil {
		return NewError(RetCIOError, shardID, "load", err)
	}

	format, err := shardfile.Decode(data, buf)
	if errors.Is(err, shardfile.ErrCorrupt) {
		return NewError(RetCCorrupt, shardID, "load", err)
	}
	if err != nil {
		return NewError(RetCInternalError, shardID, "load", err)
	}

	common.Counter(common.MetricShardLoads).Inc()
	Logger.Debugf("loaded shard %d (%s, %d bytes)", shardID, format, len(data))
	return nil
}

// --------------------------------------------------------------------------
// Dump
// --------------------------------------------------------------------------

// Dump writes buf as the new content of the shard.
// The file is written to a temporary file in the data dir and renamed over the
// shard file, so readers see either the old or the new file, never a partial one.
func (s *ShardStore) Dump(shardID uint16, buf shardfile.Buffer) (format shardfile.Format, err error) {
	if err := validShard(shardID, "dump"); err != nil {
		return 0, err
	}
	start := time.Now()

	tmp, err := afero.TempFile(s.fs, s.dir, fmt.Sprintf(".%d.dat.*.tmp", shardID))
	if err != nil {
		return 0, NewError(RetCIOError, shardID, "dump", err)
	}
	tmpName := tmp.Name()

	// remove the temporary file on any failure
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close()
		}
		if rmErr := s.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			Logger.Warningf("failed to remove temporary file %s: %v", tmpName, rmErr)
		}
	}()

	if format, err = shardfile.Encode(tmp, buf); err != nil {
		return format, NewError(RetCIOError, shardID, "dump", err)
	}
	if s.sync {
		if err = tmp.Sync(); err != nil {
			return format, NewError(RetCIOError, shardID, "dump", err)
		}
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return format, NewError(RetCIOError, shardID, "dump", err)
	}
	if err = s.fs.Rename(tmpName, s.Path(shardID)); err != nil {
		return format, NewError(RetCIOError, shardID, "dump", err)
	}
	if s.sync {
		s.syncDir()
	}

	if format == shardfile.FormatDense {
		common.Counter(common.MetricShardDumpDense).Inc()
	} else {
		common.Counter(common.MetricShardDumpSparse).Inc()
	}
	common.Histogram(common.MetricShardDumpDuration).UpdateDuration(start)
	Logger.Debugf("dumped shard %d as %s in %s", shardID, format, time.Since(start))

	return format, nil
}

// syncDir fsyncs the data dir so the rename is durable.
// Not every platform supports syncing directories, failures are only logged.
func (s *ShardStore) syncDir() {
	d, err := s.fs.Open(s.dir)
	if err != nil {
		Logger.Warningf("failed to open data dir %s for sync: %v", s.dir, err)
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		Logger.Warningf("failed to sync data dir %s: %v", s.dir, err)
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// openShard opens the file of a shard. The boolean is false if the shard has no file.
func (s *ShardStore) openShard(shardID uint16, op string) (afero.File, os.FileInfo, bool, error) {
	f, err := s.fs.Open(s.Path(shardID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, NewError(RetCIOError, shardID, op, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, false, NewError(RetCIOError, shardID, op, err)
	}
	return f, info, true, nil
}
