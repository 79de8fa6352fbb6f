package shardfile

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/record"
	"io"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// HeaderSize is the size of the format tag
	HeaderSize = 1
	// EntrySize is the size of one sparse entry (3 byte address + 2 byte record)
	EntrySize = 5
	// DenseThreshold is the number of filled slots from which on a shard is written dense
	DenseThreshold = 400_000

	writeBufferSize = 1024 * 1024 // 1 MB
)

// ErrCorrupt is returned when a shard file does not match its format tag
var ErrCorrupt = errors.New("corrupt shard file")

// --------------------------------------------------------------------------
// Format
// --------------------------------------------------------------------------

// Format is the on-disk layout of a shard, stored as the first byte of the file
type Format uint8

const (
	FormatDense  Format = 0
	FormatSparse Format = 1
)

func (f Format) String() string {
	switch f {
	case FormatDense:
		return "dense"
	case FormatSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// ChooseFormat applies the density rule
func ChooseFormat(filled int) Format {
	if filled >= DenseThreshold {
		return FormatDense
	}
	return FormatSparse
}

// EncodedSize returns the file size (tag included) of a shard in the given format
func EncodedSize(format Format, filled int) int {
	if format == FormatDense {
		return HeaderSize + BufferSize
	}
	return HeaderSize + filled*EntrySize
}

// ParseTag checks a tag byte against the body length that follows it
func ParseTag(tag byte, bodyLen int64) (Format, error) {
	switch Format(tag) {
	case FormatDense:
		if bodyLen != BufferSize {
			return FormatDense, fmt.Errorf("%w: dense body has %d bytes, expected %d", ErrCorrupt, bodyLen, BufferSize)
		}
		return FormatDense, nil
	case FormatSparse:
		if bodyLen%EntrySize != 0 {
			return FormatSparse, fmt.Errorf("%w: sparse body of %d bytes is not a multiple of %d", ErrCorrupt, bodyLen, EntrySize)
		}
		return FormatSparse, nil
	default:
		return 0, fmt.Errorf("%w: unknown format tag %d", ErrCorrupt, tag)
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode writes the buffer to w, choosing the layout by density.
// Sparse entries are emitted in ascending slot order.
func Encode(w io.Writer, buf Buffer) (Format, error) {
	if len(buf) != BufferSize {
		return 0, fmt.Errorf("invalid buffer size %d (expected %d)", len(buf), BufferSize)
	}

	format := ChooseFormat(buf.FilledCount())

	bw := bufio.NewWriterSize(w, writeBufferSize)
	if err := bw.WriteByte(byte(format)); err != nil {
		return format, err
	}

	if format == FormatDense {
		if _, err := bw.Write(buf); err != nil {
			return format, err
		}
		return format, bw.Flush()
	}

	var entry [EntrySize]byte
	for offset := uint32(0); offset < SlotCount; offset++ {
		b1, b2 := buf.Get(offset)
		if !record.IsFilled(b1) {
			continue
		}
		entry[0], entry[1], entry[2] = record.PackAddress(offset)
		entry[3], entry[4] = b1, b2
		if _, err := bw.Write(entry[:]); err != nil {
			return format, err
		}
	}

	return format, bw.Flush()
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Decode replays a complete shard file (tag included) into buf.
// buf is reset first, so slots not present in the file are absent afterwards.
func Decode(data []byte, buf Buffer) (Format, error) {
	if len(buf) != BufferSize {
		return 0, fmt.Errorf("invalid buffer size %d (expected %d)", len(buf), BufferSize)
	}
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("%w: missing format tag", ErrCorrupt)
	}

	body := data[HeaderSize:]
	format, err := ParseTag(data[0], int64(len(body)))
	if err != nil {
		return format, err
	}

	if format == FormatDense {
		copy(buf, body)
		return format, nil
	}

	buf.Reset()
	prev := int64(-1)
	for i := 0; i < len(body); i += EntrySize {
		offset := record.UnpackAddress(body[i], body[i+1], body[i+2])
		if offset >= SlotCount {
			return format, fmt.Errorf("%w: sparse entry %d addresses slot %d", ErrCorrupt, i/EntrySize, offset)
		}
		if int64(offset) <= prev {
			return format, fmt.Errorf("%w: sparse entry %d is out of order (slot %d after %d)", ErrCorrupt, i/EntrySize, offset, prev)
		}
		prev = int64(offset)
		buf.Set(offset, body[i+3], body[i+4])
	}

	return format, nil
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// SearchSparse finds the entry for offset in a sparse body (tag excluded)
// using an iterative binary search over the inclusive entry range.
func SearchSparse(body []byte, offset uint32) (b1, b2 byte, found bool) {
	low, high := 0, len(body)/EntrySize-1

	for low <= high {
		mid := low + (high-low)/2
		pos := mid * EntrySize
		midOffset := record.UnpackAddress(body[pos], body[pos+1], body[pos+2])

		switch {
		case offset < midOffset:
			high = mid - 1
		case offset > midOffset:
			low = mid + 1
		default:
			return body[pos+3], body[pos+4], true
		}
	}

	return 0, 0, false
}

// DenseSlotPosition returns the file position of a slot in a dense file
func DenseSlotPosition(offset uint32) int64 {
	return HeaderSize + int64(offset)*SlotSize
}
