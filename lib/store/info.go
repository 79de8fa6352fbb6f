package store

import (
	"errors"
	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/spf13/afero"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
)

// shardFileName matches the names of shard files inside the data dir
var shardFileName = regexp.MustCompile(`^(\d{1,4})\.dat$`)

// ShardInfo describes the stored state of a single shard
type ShardInfo struct {
	ShardID   uint16           `json:"shard_id"`
	Exists    bool             `json:"exists"`
	Format    shardfile.Format `json:"format"`
	Filled    int              `json:"filled"`
	SizeBytes int64            `json:"size_bytes"`
}

// Density returns the fraction of filled slots
func (i ShardInfo) Density() float64 {
	return float64(i.Filled) / float64(shardfile.SlotCount)
}

// Info returns the stored state of a shard. The file is validated completely,
// so a corrupt shard is reported as an error.
func (s *ShardStore) Info(shardID uint16) (ShardInfo, error) {
	info := ShardInfo{ShardID: shardID}
	if err := validShard(shardID, "info"); err != nil {
		return info, err
	}

	data, err := afero.ReadFile(s.fs, s.Path(shardID))
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, NewError(RetCIOError, shardID, "info", err)
	}

	buf := shardfile.NewBuffer()
	format, err := shardfile.Decode(data, buf)
	if err != nil {
		return info, NewError(RetCCorrupt, shardID, "info", err)
	}

	info.Exists = true
	info.Format = format
	info.Filled = buf.FilledCount()
	info.SizeBytes = int64(len(data))
	return info, nil
}

// ListShards returns the ids of all shards that have a file, in ascending order
func (s *ShardStore) ListShards() ([]uint16, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, NewError(RetCIOError, 0, "list", err)
	}

	var ids []uint16
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := shardFileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id >= record.ShardCount {
			continue
		}
		ids = append(ids, uint16(id))
	}

	slices.Sort(ids)
	return ids, nil
}
