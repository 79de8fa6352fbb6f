package store_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/ncpr/lib/lockmgr"
	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/ValentinKolb/ncpr/lib/store"
	storetesting "github.com/ValentinKolb/ncpr/lib/store/testing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataDir = "/data"

func newMemStore(t testing.TB) (*store.ShardStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	s, err := store.New(store.Config{DataDir: dataDir, Fs: fs})
	require.NoError(t, err)
	return s, fs
}

func newOsStore(t testing.TB) *store.ShardStore {
	dir := t.TempDir()
	s, err := store.New(store.Config{
		DataDir: dir,
		Sync:    true,
		Locks:   lockmgr.NewLockManager(filepath.Join(dir, ".locks")),
	})
	require.NoError(t, err)
	return s
}

// sampleRecord is stored under 1234567890 in several tests
var sampleRecord = record.Record{
	ServiceAreaCode: 5,
	Preferences:     record.Preferences(0b0000_1010),
	OptStatus:       record.OptActive,
	PhoneType:       2,
}

func put(t testing.TB, buf shardfile.Buffer, offset uint32, r record.Record) {
	b1, b2, err := record.Encode(r)
	require.NoError(t, err)
	buf.Set(offset, b1, b2)
}

// --------------------------------------------------------------------------
// Shared suite
// --------------------------------------------------------------------------

func TestShardStore(t *testing.T) {
	storetesting.RunShardStoreTests(t, "MemMapFs", func() store.IShardStore {
		s, _ := newMemStore(t)
		return s
	})

	storetesting.RunShardStoreTests(t, "OsFs", func() store.IShardStore {
		return newOsStore(t)
	})
}

func BenchmarkShardStore(b *testing.B) {
	storetesting.RunShardStoreBenchmarks(b, "MemMapFs", func() store.IShardStore {
		s, _ := newMemStore(b)
		return s
	})
}

// --------------------------------------------------------------------------
// Dump
// --------------------------------------------------------------------------

func TestDumpSingleRecordLayout(t *testing.T) {
	s, fs := newMemStore(t)

	buf := shardfile.NewBuffer()
	put(t, buf, 567890, sampleRecord)

	format, err := s.Dump(1234, buf)
	require.NoError(t, err)
	assert.Equal(t, shardfile.FormatSparse, format)

	data, err := afero.ReadFile(fs, s.Path(1234))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x08, 0xaa, 0x52, 0x96, 0x0b}, data)
}

func TestShardPath(t *testing.T) {
	s, _ := newMemStore(t)
	assert.Equal(t, filepath.Join(dataDir, "7.dat"), s.Path(7))
	assert.Equal(t, filepath.Join(dataDir, "1234.dat"), s.Path(1234))
}

func TestDumpLeavesNoTemporaryFiles(t *testing.T) {
	s, fs := newMemStore(t)

	buf := shardfile.NewBuffer()
	put(t, buf, 1, sampleRecord)
	for i := 0; i < 3; i++ {
		_, err := s.Dump(1234, buf)
		require.NoError(t, err)
	}

	entries, err := afero.ReadDir(fs, dataDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1234.dat", entries[0].Name())
}

// renameFailingFs fails every rename, the last step of a dump
type renameFailingFs struct {
	afero.Fs
}

func (renameFailingFs) Rename(string, string) error {
	return errors.New("rename failed")
}

func TestFailedDumpKeepsPreviousFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	good, err := store.New(store.Config{DataDir: dataDir, Fs: fs})
	require.NoError(t, err)

	buf := shardfile.NewBuffer()
	put(t, buf, 567890, sampleRecord)
	_, err = good.Dump(1234, buf)
	require.NoError(t, err)
	before, err := afero.ReadFile(fs, good.Path(1234))
	require.NoError(t, err)

	broken, err := store.New(store.Config{DataDir: dataDir, Fs: renameFailingFs{fs}})
	require.NoError(t, err)

	put(t, buf, 1, sampleRecord)
	_, err = broken.Dump(1234, buf)
	require.Error(t, err)

	var shardErr *store.Error
	require.True(t, errors.As(err, &shardErr))
	assert.Equal(t, store.RetCIOError, shardErr.Code)
	assert.Equal(t, uint16(1234), shardErr.ShardID)

	after, err := afero.ReadFile(fs, good.Path(1234))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := afero.ReadDir(fs, dataDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed")
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

func TestSearchSingleRecord(t *testing.T) {
	s, _ := newMemStore(t)

	buf := shardfile.NewBuffer()
	put(t, buf, 567890, sampleRecord)
	_, err := s.Dump(1234, buf)
	require.NoError(t, err)

	r, found, err := s.Search("1234567890")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleRecord, r)
	assert.Equal(t, `(5, "1#3", "A", 2)`, r.String())

	_, found, err = s.Search("1234567891")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchDense(t *testing.T) {
	s, _ := newMemStore(t)

	buf := shardfile.NewBuffer()
	for offset := uint32(0); offset < shardfile.DenseThreshold*2; offset += 2 {
		put(t, buf, offset, sampleRecord)
	}
	other := record.Record{ServiceAreaCode: 31, OptStatus: record.OptDeny, PhoneType: 3}
	put(t, buf, 999_999, other)

	format, err := s.Dump(42, buf)
	require.NoError(t, err)
	require.Equal(t, shardfile.FormatDense, format)

	r, found, err := s.Search("0042000000")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleRecord, r)

	r, found, err = s.Search("0042999999")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, other, r)

	_, found, err = s.Search("0042000001")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchMissingShard(t *testing.T) {
	s, _ := newMemStore(t)

	_, found, err := s.Search("9999000001")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchMalformedNumber(t *testing.T) {
	s, _ := newMemStore(t)

	for _, number := range []string{"", "123456789", "12345678901", "12345abcde", " 123456789", "+123456789"} {
		_, found, err := s.Search(number)
		assert.NoError(t, err, number)
		assert.False(t, found, number)
	}
}

func TestSearchMany(t *testing.T) {
	s, _ := newMemStore(t)

	buf := shardfile.NewBuffer()
	put(t, buf, 567890, sampleRecord)
	_, err := s.Dump(1234, buf)
	require.NoError(t, err)

	buf.Reset()
	other := record.Record{ServiceAreaCode: 1, OptStatus: record.OptDeny, PhoneType: 1}
	put(t, buf, 1, other)
	_, err = s.Dump(7, buf)
	require.NoError(t, err)

	results, err := s.SearchMany([]string{"1234567890", "bogus", "0007000001", "1234567891", "5555000000"})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, store.Result{Number: "1234567890", Record: sampleRecord, Found: true}, results[0])
	assert.Equal(t, store.Result{Number: "0007000001", Record: other, Found: true}, results[1])
	assert.Equal(t, store.Result{Number: "1234567891"}, results[2])
	assert.Equal(t, store.Result{Number: "5555000000"}, results[3])
}

// --------------------------------------------------------------------------
// Corruption
// --------------------------------------------------------------------------

func TestCorruptShard(t *testing.T) {
	cases := map[string][]byte{
		"empty":           {},
		"unknown tag":     {0x02, 0x00},
		"dense too short": {0x00, 0x80, 0x00},
		"sparse partial":  {0x01, 0x08, 0xaa, 0x52, 0x96},
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			s, fs := newMemStore(t)
			require.NoError(t, afero.WriteFile(fs, s.Path(1234), content, 0o644))

			_, _, err := s.Search("1234567890")
			requireCorrupt(t, err)

			err = s.LoadInto(1234, shardfile.NewBuffer())
			requireCorrupt(t, err)

			_, err = s.Info(1234)
			requireCorrupt(t, err)
		})
	}
}

func requireCorrupt(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, shardfile.ErrCorrupt), "expected corrupt error, got %v", err)

	var shardErr *store.Error
	require.True(t, errors.As(err, &shardErr))
	assert.Equal(t, store.RetCCorrupt, shardErr.Code)
	assert.True(t, strings.HasPrefix(err.Error(), "ShardError (code Corrupt, shard 1234"), err.Error())
}

// --------------------------------------------------------------------------
// Info & listing
// --------------------------------------------------------------------------

func TestInfo(t *testing.T) {
	s, _ := newMemStore(t)

	info, err := s.Info(3)
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.Equal(t, uint16(3), info.ShardID)

	buf := shardfile.NewBuffer()
	for offset := uint32(0); offset < 10; offset++ {
		put(t, buf, offset, sampleRecord)
	}
	_, err = s.Dump(3, buf)
	require.NoError(t, err)

	info, err = s.Info(3)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, shardfile.FormatSparse, info.Format)
	assert.Equal(t, 10, info.Filled)
	assert.Equal(t, int64(shardfile.EncodedSize(shardfile.FormatSparse, 10)), info.SizeBytes)
	assert.InDelta(t, 0.00001, info.Density(), 1e-12)

	_, err = s.Info(record.ShardCount)
	assert.Error(t, err)
}

func TestListShards(t *testing.T) {
	s, fs := newMemStore(t)

	ids, err := s.ListShards()
	require.NoError(t, err)
	assert.Empty(t, ids)

	buf := shardfile.NewBuffer()
	for _, id := range []uint16{1234, 3, 42} {
		_, err := s.Dump(id, buf)
		require.NoError(t, err)
	}
	for _, name := range []string{"abc.dat", "12345.dat", ".3.dat.123.tmp", "notes.txt", "7.dat.bak"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dataDir, name), []byte{1}, 0o644))
	}
	require.NoError(t, fs.MkdirAll(filepath.Join(dataDir, "99.dat"), 0o755))

	ids, err = s.ListShards()
	require.NoError(t, err)
	assert.Equal(t, []uint16{3, 42, 1234}, ids)
}

// --------------------------------------------------------------------------
// Misc
// --------------------------------------------------------------------------

func TestNewRequiresDataDir(t *testing.T) {
	_, err := store.New(store.Config{Fs: afero.NewMemMapFs()})
	assert.Error(t, err)
}

func TestLoadReturnsFreshBuffer(t *testing.T) {
	s, _ := newMemStore(t)

	buf := shardfile.NewBuffer()
	put(t, buf, 567890, sampleRecord)
	_, err := s.Dump(1234, buf)
	require.NoError(t, err)

	loaded, err := s.Load(1234)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.FilledCount())
	assert.True(t, loaded.Filled(567890))
}

func TestUnlockTwice(t *testing.T) {
	s, _ := newMemStore(t)

	unlock, err := s.Lock(9)
	require.NoError(t, err)
	require.NoError(t, unlock())
	assert.NoError(t, unlock(), "releasing a released lock is a no-op")
}
