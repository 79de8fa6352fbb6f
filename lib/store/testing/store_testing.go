package testing

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/ValentinKolb/ncpr/lib/store"
)

// StoreFactory is a function that creates a new, empty shard store
type StoreFactory func() store.IShardStore

// RunShardStoreTests runs the test suite for an IShardStore implementation.
func RunShardStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("MissingShardIsEmpty", func(t *testing.T) {
			testMissingShardIsEmpty(t, factory())
		})

		t.Run("DumpLoadSparse", func(t *testing.T) {
			testDumpLoadSparse(t, factory())
		})

		t.Run("DumpLoadDense", func(t *testing.T) {
			testDumpLoadDense(t, factory())
		})

		t.Run("FormatTransition", func(t *testing.T) {
			testFormatTransition(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory())
		})

		t.Run("ShardsAreIndependent", func(t *testing.T) {
			testShardsAreIndependent(t, factory())
		})

		t.Run("InvalidShard", func(t *testing.T) {
			testInvalidShard(t, factory())
		})

		t.Run("LockedReadModifyWrite", func(t *testing.T) {
			testLockedReadModifyWrite(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// slot returns the packed bytes of a record derived from i
func slot(t testing.TB, i int) (byte, byte) {
	r := record.Record{
		ServiceAreaCode: uint8(record.MinServiceAreaCode + i%record.MaxServiceAreaCode),
		Preferences:     record.Preferences(uint8(i%64) << 1),
		OptStatus:       record.OptStatus(i % 2),
		PhoneType:       uint8(record.MinPhoneType + i%record.MaxPhoneType),
	}
	b1, b2, err := record.Encode(r)
	if err != nil {
		t.Fatalf("failed to encode record %v: %v", r, err)
	}
	return b1, b2
}

// fill sets n slots spread over the whole shard
func fill(t testing.TB, buf shardfile.Buffer, n int) {
	step := shardfile.SlotCount / n
	for i := 0; i < n; i++ {
		b1, b2 := slot(t, i)
		buf.Set(uint32(i*step), b1, b2)
	}
}

func dump(t *testing.T, s store.IShardStore, shardID uint16, buf shardfile.Buffer) shardfile.Format {
	t.Helper()
	format, err := s.Dump(shardID, buf)
	if err != nil {
		t.Fatalf("failed to dump shard %d: %v", shardID, err)
	}
	return format
}

func load(t *testing.T, s store.IShardStore, shardID uint16) shardfile.Buffer {
	t.Helper()
	buf := shardfile.NewBuffer()
	if err := s.LoadInto(shardID, buf); err != nil {
		t.Fatalf("failed to load shard %d: %v", shardID, err)
	}
	return buf
}

func requireEqualBuffers(t *testing.T, expected, actual shardfile.Buffer) {
	t.Helper()
	for offset := uint32(0); offset < shardfile.SlotCount; offset++ {
		e1, e2 := expected.Get(offset)
		a1, a2 := actual.Get(offset)
		if e1 != a1 || e2 != a2 {
			t.Fatalf("slot %d differs: expected %#02x %#02x, got %#02x %#02x", offset, e1, e2, a1, a2)
		}
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testMissingShardIsEmpty(t *testing.T, s store.IShardStore) {
	buf := shardfile.NewBuffer()
	fill(t, buf, 10)

	if err := s.LoadInto(17, buf); err != nil {
		t.Fatalf("Expected loading a missing shard to succeed, got %v", err)
	}
	if n := buf.FilledCount(); n != 0 {
		t.Errorf("Expected missing shard to load empty, got %d filled slots", n)
	}
}

func testDumpLoadSparse(t *testing.T, s store.IShardStore) {
	buf := shardfile.NewBuffer()
	fill(t, buf, 1_000)

	if format := dump(t, s, 1, buf); format != shardfile.FormatSparse {
		t.Errorf("Expected format %s, got %s", shardfile.FormatSparse, format)
	}
	requireEqualBuffers(t, buf, load(t, s, 1))
}

func testDumpLoadDense(t *testing.T, s store.IShardStore) {
	buf := shardfile.NewBuffer()
	fill(t, buf, shardfile.DenseThreshold)

	if format := dump(t, s, 2, buf); format != shardfile.FormatDense {
		t.Errorf("Expected format %s, got %s", shardfile.FormatDense, format)
	}
	requireEqualBuffers(t, buf, load(t, s, 2))
}

func testFormatTransition(t *testing.T, s store.IShardStore) {
	buf := shardfile.NewBuffer()
	fill(t, buf, shardfile.DenseThreshold)
	if format := dump(t, s, 3, buf); format != shardfile.FormatDense {
		t.Fatalf("Expected format %s, got %s", shardfile.FormatDense, format)
	}

	// dropping one record falls below the threshold
	step := uint32(shardfile.SlotCount / shardfile.DenseThreshold)
	buf.Set(step, 0, 0)
	if format := dump(t, s, 3, buf); format != shardfile.FormatSparse {
		t.Fatalf("Expected format %s, got %s", shardfile.FormatSparse, format)
	}

	loaded := load(t, s, 3)
	if n := loaded.FilledCount(); n != shardfile.DenseThreshold-1 {
		t.Errorf("Expected %d filled slots, got %d", shardfile.DenseThreshold-1, n)
	}
	requireEqualBuffers(t, buf, loaded)
}

func testOverwrite(t *testing.T, s store.IShardStore) {
	first := shardfile.NewBuffer()
	fill(t, first, 100)
	dump(t, s, 4, first)

	second := shardfile.NewBuffer()
	b1, b2 := slot(t, 7)
	second.Set(999_999, b1, b2)
	dump(t, s, 4, second)

	loaded := load(t, s, 4)
	if n := loaded.FilledCount(); n != 1 {
		t.Errorf("Expected the second dump to replace the shard, got %d filled slots", n)
	}
	requireEqualBuffers(t, second, loaded)
}

func testShardsAreIndependent(t *testing.T, s store.IShardStore) {
	a := shardfile.NewBuffer()
	fill(t, a, 10)
	dump(t, s, 0, a)

	b := shardfile.NewBuffer()
	fill(t, b, 20)
	dump(t, s, record.ShardCount-1, b)

	requireEqualBuffers(t, a, load(t, s, 0))
	requireEqualBuffers(t, b, load(t, s, record.ShardCount-1))
}

func testInvalidShard(t *testing.T, s store.IShardStore) {
	buf := shardfile.NewBuffer()
	if err := s.LoadInto(record.ShardCount, buf); err == nil {
		t.Errorf("Expected loading shard %d to fail", record.ShardCount)
	}
	if _, err := s.Dump(record.ShardCount, buf); err == nil {
		t.Errorf("Expected dumping shard %d to fail", record.ShardCount)
	}
}

// testLockedReadModifyWrite lets several writers add slots to the same shard.
// Without mutual exclusion some of the additions would be lost.
func testLockedReadModifyWrite(t *testing.T, s store.IShardStore) {
	const (
		writers = 4
		rounds  = 3
		shardID = 5
	)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			buf := shardfile.NewBuffer()
			for r := 0; r < rounds; r++ {
				unlock, err := s.Lock(shardID)
				if err != nil {
					t.Errorf("failed to lock shard: %v", err)
					return
				}
				if err := s.LoadInto(shardID, buf); err != nil {
					t.Errorf("failed to load shard: %v", err)
				}
				b1, b2 := slot(t, w)
				buf.Set(uint32(w*rounds+r), b1, b2)
				if _, err := s.Dump(shardID, buf); err != nil {
					t.Errorf("failed to dump shard: %v", err)
				}
				if err := unlock(); err != nil {
					t.Errorf("failed to unlock shard: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := load(t, s, shardID).FilledCount(); n != writers*rounds {
		t.Errorf("Expected %d filled slots, got %d", writers*rounds, n)
	}
}
