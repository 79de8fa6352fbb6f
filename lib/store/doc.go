// Package store implements the shard store and the lookup engine: it keeps
// one file per shard inside a data directory and moves shards between their
// file representation and the in-memory buffer defined by package shardfile.
//
// The package focuses on:
//   - Loading a shard file into a buffer (or an empty buffer if no file exists)
//   - Dumping a buffer back to disk with the density rule and an atomic replace
//   - Looking up single phone numbers without materializing the whole shard
//   - Reporting the stored state of shards (format, fill level, size)
//
// Key Components:
//
//   - ShardStore: the store implementation. All file access goes through an
//     afero.Fs, so the store runs on the OS filesystem in production and on
//     an in-memory filesystem in tests.
//
//   - IShardStore Interface: the write path used by the patch engine
//     (Lock, LoadInto, Dump).
//
//   - Error System: every failure is reported as *Error carrying a RetCode,
//     the shard id and the operation. Corrupt files wrap shardfile.ErrCorrupt,
//     so callers can separate them from I/O failures with errors.Is.
//
// Dumping:
//
//	A dump writes the encoded shard to a temporary file in the data directory,
//	optionally fsyncs it, and renames it over the shard file. Readers therefore
//	observe either the previous or the new content, never a file whose tag and
//	body disagree. The temporary file is removed if any step fails.
//
// Searching:
//
//	A missing shard file or a malformed number is "not found", not an error.
//	Dense files are read at the slot position (two bytes, no full load).
//	Sparse files are read and binary searched. SearchMany answers many numbers
//	while reading every touched shard file once.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Load -> mutate -> Dump sequences
//	on the same shard must be serialized with Lock, which delegates to a
//	lockmgr.ILockManager (in-process, or flock based across processes).
package store
