package store

import (
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IShardStore is the interface the patch engine uses to update shards.
// A writer must hold the shard lock for the whole LoadInto -> mutate -> Dump sequence.
type IShardStore interface {
	// LoadInto replaces the content of buf with the stored shard.
	// A shard without a file loads as an empty buffer.
	LoadInto(shardID uint16, buf shardfile.Buffer) (err error)
	// Dump persists buf as the new content of the shard, choosing the format by density.
	// The shard file is replaced atomically.
	Dump(shardID uint16, buf shardfile.Buffer) (format shardfile.Format, err error)
	// Lock blocks until the writer lock of the shard is held and returns the function releasing it.
	Lock(shardID uint16) (unlock func() error, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// the shard and operation it occurred in and the underlying error.
type Error struct {
	Code    RetCode // The return code
	ShardID uint16  // The shard the operation worked on
	Op      string  // The failed operation (load, dump, search, ...)
	Err     error   // The underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ShardError (code %s, shard %d, op %s): %v", e.Code, e.ShardID, e.Op, e.Err)
}

// Unwrap returns the underlying error, so errors.Is(err, shardfile.ErrCorrupt) works
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code, shard, operation and cause.
func NewError(code RetCode, shardID uint16, op string, err error) *Error {
	return &Error{
		Code:    code,
		ShardID: shardID,
		Op:      op,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                // 1: Operation failed due to an internal error.
	RetCCorrupt                      // 2: The shard file does not match its format tag.
	RetCIOError                      // 3: Reading or writing the shard file failed.
	RetCInvalidShard                 // 4: The shard id is out of range.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCCorrupt:
		return "Corrupt"
	case RetCIOError:
		return "IOError"
	case RetCInvalidShard:
		return "InvalidShard"
	default:
		return "Unknown"
	}
}
