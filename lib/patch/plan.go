package patch

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/batch"
	"github.com/ValentinKolb/ncpr/lib/record"
	"io"
	"slices"
)

// Update is a validated, encoded record update
type Update struct {
	Key    record.Key
	B1, B2 byte
	Line   int
}

// Rejection is a batch row that was not applied
type Rejection struct {
	Line   int
	Key    string
	Reason error
}

func (r Rejection) String() string {
	return fmt.Sprintf("line %d: rejected %q: %v", r.Line, r.Key, r.Reason)
}

// Plan holds the accepted updates of a batch grouped by shard
type Plan struct {
	// Shards lists the touched shards in ascending order
	Shards []uint16
	// Updates maps a shard to its updates in batch order
	Updates map[uint16][]Update
	// Records is the number of accepted updates (duplicates included)
	Records  int
	Rejected []Rejection
}

// NewUpdate validates and encodes a single batch row
func NewUpdate(row batch.Row) (Update, error) {
	key, err := record.ParseKey(row.PhoneNumber)
	if err != nil {
		return Update{}, err
	}

	r, err := record.Parse(row.ServiceAreaCode, row.Preferences, row.OptStatus, row.PhoneType)
	if err != nil {
		return Update{}, err
	}

	b1, b2, err := record.Encode(r)
	if err != nil {
		return Update{}, err
	}

	return Update{Key: key, B1: b1, B2: b2, Line: row.Line}, nil
}

// Prepare reads src until io.EOF and groups its valid rows by shard.
// Only errors of the source itself (other than *batch.RowError) are returned.
func Prepare(src batch.Source) (*Plan, error) {
	plan := &Plan{Updates: make(map[uint16][]Update)}

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var rowErr *batch.RowError
			if errors.As(err, &rowErr) {
				plan.reject(rowErr.Line, rowErr.Number, rowErr)
				continue
			}
			return nil, fmt.Errorf("failed to read batch: %w", err)
		}

		u, err := NewUpdate(row)
		if err != nil {
			plan.reject(row.Line, row.PhoneNumber, err)
			continue
		}
		plan.Add(u)
	}

	slices.Sort(plan.Shards)
	return plan, nil
}

// Add appends an update to its shard
func (p *Plan) Add(u Update) {
	if _, ok := p.Updates[u.Key.Shard]; !ok {
		p.Shards = append(p.Shards, u.Key.Shard)
	}
	p.Updates[u.Key.Shard] = append(p.Updates[u.Key.Shard], u)
	p.Records++
}

func (p *Plan) reject(line int, key string, reason error) {
	Logger.Debugf("rejecting line %d (%q): %v", line, key, reason)
	p.Rejected = append(p.Rejected, Rejection{Line: line, Key: key, Reason: reason})
}
