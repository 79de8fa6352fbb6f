// Package record implements the fixed two byte encoding of a phone preference
// record and the helpers needed to address it inside a shard.
//
// A record is identified by a 10-digit phone number. The first four digits
// select the shard (0-9999), the last six digits select the slot inside that
// shard (0-999999). The record itself is packed into two bytes:
//
//	byte 1:  F SSSSS TT
//	         | |     +-- phone type (1-3)
//	         | +-------- service area code (1-31)
//	         +---------- fill indicator (always 1 for a stored record)
//
//	byte 2:  PPPPPPP O
//	         |       +-- opt status (1 = active, 0 = deny)
//	         +---------- one bit per preference value 1-7 (bit position = value)
//
// The fill indicator is what separates a stored record from a zero
// initialized (empty) slot, so Decode reports "absent" whenever it is unset.
//
// Inside sparse shard files the slot number is stored as a 3 byte big-endian
// address (see PackAddress and UnpackAddress). Offsets never exceed 999999 and
// therefore fit into 20 bits.
//
// Textual forms follow the batch input format: preferences are written as
// "0" for the empty set or as the ascending values joined by '#' (e.g. "1#3"),
// opt status is written as "A" (active) or "D" (deny). The value 0 is a
// sentinel for "no preferences" and never a flag.
package record
