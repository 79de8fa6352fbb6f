package shardfile

import (
	"github.com/ValentinKolb/ncpr/lib/record"
)

const (
	// SlotSize is the size of one encoded record
	SlotSize = 2
	// SlotCount is the number of slots of a shard
	SlotCount = record.SlotsPerShard
	// BufferSize is the size of an unpacked shard
	BufferSize = SlotCount * SlotSize
)

// Buffer is the unpacked representation of a shard
type Buffer []byte

// NewBuffer allocates an empty (all slots absent) shard buffer
func NewBuffer() Buffer {
	return make(Buffer, BufferSize)
}

// Set stores the encoded bytes of a record at the given slot
func (b Buffer) Set(offset uint32, b1, b2 byte) {
	b[2*offset] = b1
	b[2*offset+1] = b2
}

// Get returns the encoded bytes at the given slot
func (b Buffer) Get(offset uint32) (b1, b2 byte) {
	return b[2*offset], b[2*offset+1]
}

// Filled reports whether the slot holds a record
func (b Buffer) Filled(offset uint32) bool {
	return record.IsFilled(b[2*offset])
}

// FilledCount returns the number of slots that hold a record
func (b Buffer) FilledCount() int {
	filled := 0
	for i := 0; i < len(b); i += SlotSize {
		if record.IsFilled(b[i]) {
			filled++
		}
	}
	return filled
}

// Reset marks every slot as absent
func (b Buffer) Reset() {
	clear(b)
}
