// Package shardfile defines the in-memory shard buffer and the two on-disk
// layouts a shard can be stored in.
//
// A shard buffer holds 1,000,000 two byte slots (2,000,000 bytes). Slot n
// occupies bytes 2n and 2n+1. All mutations happen on the buffer; files are
// always produced from, and decoded into, a complete buffer.
//
// File layouts (first byte is the format tag):
//
//	Dense  (tag 0): the raw 2,000,000 byte buffer
//	Sparse (tag 1): N entries of 5 bytes, 3 byte big-endian slot address
//	                followed by the 2 encoded record bytes, sorted ascending
//	                by address
//
// The layout is chosen purely by density when encoding: a buffer with at
// least 400,000 filled slots is written dense, otherwise sparse. At exactly
// 400,000 slots both layouts have the same body size (5 * 400,000 =
// 2,000,000), so the threshold always picks the smaller file and the choice
// can be reproduced from the buffer alone.
//
// Any file whose body length does not match its tag is corrupt and is
// reported with ErrCorrupt.
package shardfile
