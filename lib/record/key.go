package record

import (
	"errors"
	"fmt"
)

const (
	// KeyLength is the number of digits of a phone number
	KeyLength = 10
	// ShardDigits is the number of leading digits that select the shard
	ShardDigits = 4
	// ShardCount is the number of possible shards (0000-9999)
	ShardCount = 10_000
	// SlotsPerShard is the number of records a single shard can hold
	SlotsPerShard = 1_000_000
)

// ErrInvalidKey is returned when a phone number is not exactly 10 digits
var ErrInvalidKey = errors.New("invalid phone number")

// Key is a parsed phone number
type Key struct {
	Shard  uint16 // first 4 digits
	Offset uint32 // last 6 digits
}

// ParseKey splits a 10-digit phone number into shard and offset
func ParseKey(s string) (Key, error) {
	if len(s) != KeyLength {
		return Key{}, fmt.Errorf("%w %q: expected %d digits", ErrInvalidKey, s, KeyLength)
	}

	var shard, offset uint32
	for i := 0; i < KeyLength; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Key{}, fmt.Errorf("%w %q: non-digit character at position %d", ErrInvalidKey, s, i)
		}
		if i < ShardDigits {
			shard = shard*10 + uint32(c-'0')
		} else {
			offset = offset*10 + uint32(c-'0')
		}
	}

	return Key{Shard: uint16(shard), Offset: offset}, nil
}

// String returns the 10-digit form of the key
func (k Key) String() string {
	return fmt.Sprintf("%04d%06d", k.Shard, k.Offset)
}
