package store

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/common"
	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/spf13/afero"
	"io"
	"io/fs"
)

// --------------------------------------------------------------------------
// Point lookup
// --------------------------------------------------------------------------

// Search looks up a single phone number.
// A malformed number or a missing shard file is reported as "not found"
// (false, nil). Corrupt shard files and I/O failures are errors.
func (s *ShardStore) Search(number string) (record.Record, bool, error) {
	key, err := record.ParseKey(number)
	if err != nil {
		common.Counter(common.MetricSearchAbsent).Inc()
		return record.Record{}, false, nil
	}

	r, found, err := s.SearchKey(key)
	switch {
	case err != nil:
		common.Counter(common.MetricSearchError).Inc()
	case found:
		common.Counter(common.MetricSearchFound).Inc()
	default:
		common.Counter(common.MetricSearchAbsent).Inc()
	}
	return r, found, err
}

// SearchKey looks up a parsed key without loading the whole shard:
// dense files are read at the slot position, sparse files are binary searched.
func (s *ShardStore) SearchKey(key record.Key) (record.Record, bool, error) {
	if err := validShard(key.Shard, "search"); err != nil {
		return record.Record{}, false, err
	}
	if key.Offset >= shardfile.SlotCount {
		return record.Record{}, false, nil
	}

	f, info, exists, err := s.openShard(key.Shard, "search")
	if err != nil || !exists {
		return record.Record{}, false, err
	}
	defer f.Close()

	b1, b2, found, err := searchFile(f, info.Size(), key.Offset)
	if errors.Is(err, shardfile.ErrCorrupt) {
		return record.Record{}, false, NewError(RetCCorrupt, key.Shard, "search", err)
	}
	if err != nil {
		return record.Record{}, false, NewError(RetCIOError, key.Shard, "search", err)
	}
	if !found {
		return record.Record{}, false, nil
	}

	r, ok := record.Decode(b1, b2)
	return r, ok, nil
}

// searchFile reads the slot at offset from an open shard file of the given size
func searchFile(f io.ReaderAt, size int64, offset uint32) (b1, b2 byte, found bool, err error) {
	if size < shardfile.HeaderSize {
		return 0, 0, false, fmt.Errorf("%w: missing format tag", shardfile.ErrCorrupt)
	}

	var tag [shardfile.HeaderSize]byte
	if _, err := f.ReadAt(tag[:], 0); err != nil {
		return 0, 0, false, err
	}

	format, err := shardfile.ParseTag(tag[0], size-shardfile.HeaderSize)
	if err != nil {
		return 0, 0, false, err
	}

	if format == shardfile.FormatDense {
		var slot [shardfile.SlotSize]byte
		if _, err := f.ReadAt(slot[:], shardfile.DenseSlotPosition(offset)); err != nil {
			return 0, 0, false, err
		}
		return slot[0], slot[1], true, nil
	}

	body := make([]byte, size-shardfile.HeaderSize)
	if len(body) > 0 {
		if _, err := f.ReadAt(body, shardfile.HeaderSize); err != nil {
			return 0, 0, false, err
		}
	}
	b1, b2, found = shardfile.SearchSparse(body, offset)
	return b1, b2, found, nil
}

// --------------------------------------------------------------------------
// Multi lookup
// --------------------------------------------------------------------------

// Result is the outcome of looking up one phone number
type Result struct {
	Number string
	Record record.Record
	Found  bool
}

// SearchMany looks up several phone numbers at once, reading each touched shard
// file at most once. Malformed numbers are skipped, the remaining results keep
// the input order.
func (s *ShardStore) SearchMany(numbers []string) ([]Result, error) {
	type lookup struct {
		idx int
		key record.Key
	}

	results := make([]Result, 0, len(numbers))
	byShard := make(map[uint16][]lookup)
	var order []uint16

	for _, number := range numbers {
		key, err := record.ParseKey(number)
		if err != nil {
			continue
		}
		if _, seen := byShard[key.Shard]; !seen {
			order = append(order, key.Shard)
		}
		byShard[key.Shard] = append(byShard[key.Shard], lookup{idx: len(results), key: key})
		results = append(results, Result{Number: number})
	}

	for _, shardID := range order {
		data, err := afero.ReadFile(s.fs, s.Path(shardID))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, NewError(RetCIOError, shardID, "search", err)
		}

		if len(data) < shardfile.HeaderSize {
			return nil, NewError(RetCCorrupt, shardID, "search", fmt.Errorf("%w: missing format tag", shardfile.ErrCorrupt))
		}
		format, err := shardfile.ParseTag(data[0], int64(len(data)-shardfile.HeaderSize))
		if err != nil {
			return nil, NewError(RetCCorrupt, shardID, "search", err)
		}

		body := data[shardfile.HeaderSize:]
		for _, l := range byShard[shardID] {
			var (
				b1, b2 byte
				found  bool
			)
			if format == shardfile.FormatDense {
				b1, b2 = shardfile.Buffer(body).Get(l.key.Offset)
				found = true
			} else {
				b1, b2, found = shardfile.SearchSparse(body, l.key.Offset)
			}
			if found {
				results[l.idx].Record, results[l.idx].Found = record.Decode(b1, b2)
			}
		}
	}

	return results, nil
}
