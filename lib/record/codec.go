package record

// --------------------------------------------------------------------------
// Bit layout
// --------------------------------------------------------------------------

const (
	fillBit             byte = 0b1000_0000
	serviceAreaCodeMask byte = 0b0111_1100
	serviceAreaCodeBits      = 2
	phoneTypeMask       byte = 0b0000_0011
	preferencesMask     byte = 0b1111_1110
	optStatusMask       byte = 0b0000_0001
)

// --------------------------------------------------------------------------
// Record encoding
// --------------------------------------------------------------------------

// Encode packs a record into its two byte form.
// The fill indicator of the first byte is always set.
func Encode(r Record) (b1, b2 byte, err error) {
	if err := r.Validate(); err != nil {
		return 0, 0, err
	}

	b1 = fillBit
	b1 |= r.ServiceAreaCode << serviceAreaCodeBits
	b1 |= r.PhoneType

	b2 = byte(r.Preferences) & preferencesMask
	b2 |= byte(r.OptStatus) & optStatusMask

	return b1, b2, nil
}

// Decode unpacks the two byte form of a record.
// The boolean is false if the fill indicator is not set (empty slot).
func Decode(b1, b2 byte) (Record, bool) {
	if !IsFilled(b1) {
		return Record{}, false
	}

	return Record{
		ServiceAreaCode: (b1 & serviceAreaCodeMask) >> serviceAreaCodeBits,
		Preferences:     Preferences(b2 & preferencesMask),
		OptStatus:       OptStatus(b2 & optStatusMask),
		PhoneType:       b1 & phoneTypeMask,
	}, true
}

// IsFilled reports whether the first byte of a slot carries the fill indicator
func IsFilled(b1 byte) bool {
	return b1&fillBit != 0
}

// --------------------------------------------------------------------------
// Address encoding
// --------------------------------------------------------------------------

// PackAddress encodes a slot offset as a 3 byte big-endian address
func PackAddress(offset uint32) (b1, b2, b3 byte) {
	return byte(offset >> 16), byte(offset >> 8), byte(offset)
}

// UnpackAddress decodes a 3 byte big-endian address
func UnpackAddress(b1, b2, b3 byte) uint32 {
	return uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
}
