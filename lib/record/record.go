package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	MinServiceAreaCode = 1
	MaxServiceAreaCode = 31
	MinPhoneType       = 1
	MaxPhoneType       = 3
	MinPreference      = 1
	MaxPreference      = 7

	// noPreferences is the textual sentinel for an empty preference set
	noPreferences = "0"
	// preferenceSep separates preference values in the textual form
	preferenceSep = "#"
)

// ErrInvalidRecord is returned (wrapped) whenever a record field is out of range
var ErrInvalidRecord = errors.New("invalid record")

// --------------------------------------------------------------------------
// Opt Status
// --------------------------------------------------------------------------

// OptStatus is the opt-in state of a phone number
type OptStatus uint8

const (
	OptDeny   OptStatus = 0 // "D", the default
	OptActive OptStatus = 1 // "A"
)

func (o OptStatus) String() string {
	if o == OptActive {
		return "A"
	}
	return "D"
}

// ParseOptStatus parses the textual opt status ("A" or "D")
func ParseOptStatus(s string) (OptStatus, error) {
	switch s {
	case "A":
		return OptActive, nil
	case "D":
		return OptDeny, nil
	default:
		return OptDeny, fmt.Errorf("%w: opt status must be A or D, got %q", ErrInvalidRecord, s)
	}
}

// --------------------------------------------------------------------------
// Preferences
// --------------------------------------------------------------------------

// Preferences is a set of preference values in the range 1-7.
// Value v is stored at bit position v, bit 0 is always unset.
type Preferences uint8

// NewPreferences creates a preference set from the given values
func NewPreferences(values ...int) (Preferences, error) {
	var p Preferences
	for _, v := range values {
		if v < MinPreference || v > MaxPreference {
			return 0, fmt.Errorf("%w: preference %d out of range %d-%d", ErrInvalidRecord, v, MinPreference, MaxPreference)
		}
		p |= 1 << v
	}
	return p, nil
}

// ParsePreferences parses the textual form of a preference set.
// "0" is the empty set, otherwise the values are separated by '#'.
// Empty elements (e.g. "1##3") are ignored.
func ParsePreferences(s string) (Preferences, error) {
	if s == noPreferences {
		return 0, nil
	}

	var values []int
	for _, part := range strings.Split(s, preferenceSep) {
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("%w: preference %q is not a number", ErrInvalidRecord, part)
		}
		values = append(values, v)
	}
	return NewPreferences(values...)
}

// Has reports whether value v is part of the set
func (p Preferences) Has(v int) bool {
	if v < MinPreference || v > MaxPreference {
		return false
	}
	return p&(1<<v) != 0
}

// Values returns the values of the set in ascending order
func (p Preferences) Values() []int {
	var values []int
	for v := MinPreference; v <= MaxPreference; v++ {
		if p.Has(v) {
			values = append(values, v)
		}
	}
	return values
}

// String returns the textual form ("0" or e.g. "1#3")
func (p Preferences) String() string {
	values := p.Values()
	if len(values) == 0 {
		return noPreferences
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, preferenceSep)
}

// --------------------------------------------------------------------------
// Record
// --------------------------------------------------------------------------

// Record is the decoded form of a stored phone number entry
type Record struct {
	ServiceAreaCode uint8
	Preferences     Preferences
	OptStatus       OptStatus
	PhoneType       uint8
}

// Parse builds a record from the raw fields of a batch row
func Parse(serviceAreaCode int, preferences, optStatus string, phoneType int) (Record, error) {
	prefs, err := ParsePreferences(preferences)
	if err != nil {
		return Record{}, err
	}
	opt, err := ParseOptStatus(optStatus)
	if err != nil {
		return Record{}, err
	}
	if serviceAreaCode < MinServiceAreaCode || serviceAreaCode > MaxServiceAreaCode {
		return Record{}, fmt.Errorf("%w: service area code %d out of range %d-%d", ErrInvalidRecord, serviceAreaCode, MinServiceAreaCode, MaxServiceAreaCode)
	}
	if phoneType < MinPhoneType || phoneType > MaxPhoneType {
		return Record{}, fmt.Errorf("%w: phone type %d out of range %d-%d", ErrInvalidRecord, phoneType, MinPhoneType, MaxPhoneType)
	}

	r := Record{
		ServiceAreaCode: uint8(serviceAreaCode),
		Preferences:     prefs,
		OptStatus:       opt,
		PhoneType:       uint8(phoneType),
	}
	return r, nil
}

// Validate checks that all fields are within their encodable ranges
func (r Record) Validate() error {
	switch {
	case r.ServiceAreaCode < MinServiceAreaCode || r.ServiceAreaCode > MaxServiceAreaCode:
		return fmt.Errorf("%w: service area code %d out of range %d-%d", ErrInvalidRecord, r.ServiceAreaCode, MinServiceAreaCode, MaxServiceAreaCode)
	case r.PhoneType < MinPhoneType || r.PhoneType > MaxPhoneType:
		return fmt.Errorf("%w: phone type %d out of range %d-%d", ErrInvalidRecord, r.PhoneType, MinPhoneType, MaxPhoneType)
	case r.Preferences&1 != 0:
		return fmt.Errorf("%w: preference 0 is reserved", ErrInvalidRecord)
	case r.OptStatus > OptActive:
		return fmt.Errorf("%w: unknown opt status %d", ErrInvalidRecord, r.OptStatus)
	}
	return nil
}

// String renders the record as (service area code, "preferences", "opt status", phone type)
func (r Record) String() string {
	return fmt.Sprintf("(%d, %q, %q, %d)", r.ServiceAreaCode, r.Preferences.String(), r.OptStatus.String(), r.PhoneType)
}
