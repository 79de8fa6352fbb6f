package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FieldCount is the number of columns of a batch row
const FieldCount = 5

// Column names, used in errors
const (
	FieldServiceAreaCode = "service_area_code"
	FieldPhoneNumber     = "phone_number"
	FieldPreferences     = "preferences"
	FieldOptStatus       = "opt_status"
	FieldPhoneType       = "phone_type"
)

// ErrMalformedRow is wrapped by every RowError caused by the row's shape
var ErrMalformedRow = errors.New("malformed row")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Row is one unvalidated batch row. Only the numeric columns are parsed.
type Row struct {
	Line            int
	ServiceAreaCode int
	PhoneNumber     string
	Preferences     string
	OptStatus       string
	PhoneType       int
}

// RowError reports a row that could not be read
type RowError struct {
	Line   int
	Number string // the phone number column, if the row had one
	Field  string // the offending column, empty if the whole row is malformed
	Err    error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Source yields batch rows. Next returns io.EOF after the last row.
// Any other error that is not a *RowError is terminal.
type Source interface {
	Next() (Row, error)
}

// --------------------------------------------------------------------------
// CSV Reader
// --------------------------------------------------------------------------

// Reader reads batch rows from CSV
type Reader struct {
	csv        *csv.Reader
	skipHeader bool
}

// NewReader returns a reader for a CSV batch that starts with a header row
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{csv: cr, skipHeader: true}
}

// WithoutHeader makes the reader treat the first row as data
func (r *Reader) WithoutHeader() *Reader {
	r.skipHeader = false
	return r
}

// Next returns the next row
func (r *Reader) Next() (Row, error) {
	for {
		fields, err := r.csv.Read()
		if err == io.EOF {
			return Row{}, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				r.skipHeader = false
				return Row{}, &RowError{Line: pe.StartLine, Err: fmt.Errorf("%w: %v", ErrMalformedRow, pe.Err)}
			}
			return Row{}, err
		}

		line, _ := r.csv.FieldPos(0)
		if r.skipHeader {
			r.skipHeader = false
			continue
		}
		return parseRow(line, fields)
	}
}

// parseRow converts the fields of one CSV record
func parseRow(line int, fields []string) (Row, error) {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var number string
	if len(fields) > 1 {
		number = fields[1]
	}
	if len(fields) != FieldCount {
		return Row{}, &RowError{
			Line:   line,
			Number: number,
			Err:    fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRow, FieldCount, len(fields)),
		}
	}

	sac, err := strconv.Atoi(fields[0])
	if err != nil {
		return Row{}, &RowError{Line: line, Number: number, Field: FieldServiceAreaCode, Err: err}
	}
	phoneType, err := strconv.Atoi(fields[4])
	if err != nil {
		return Row{}, &RowError{Line: line, Number: number, Field: FieldPhoneType, Err: err}
	}

	return Row{
		Line:            line,
		ServiceAreaCode: sac,
		PhoneNumber:     number,
		Preferences:     fields[2],
		OptStatus:       fields[3],
		PhoneType:       phoneType,
	}, nil
}

// --------------------------------------------------------------------------
// Slice Source
// --------------------------------------------------------------------------

// SliceSource serves rows from memory
type SliceSource struct {
	rows []Row
	pos  int
}

// FromRows returns a source yielding the given rows in order.
// Rows without a line number are numbered by their position (starting at 1).
func FromRows(rows ...Row) *SliceSource {
	for i := range rows {
		if rows[i].Line == 0 {
			rows[i].Line = i + 1
		}
	}
	return &SliceSource{rows: rows}
}

func (s *SliceSource) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return Row{}, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
