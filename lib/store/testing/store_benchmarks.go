package testing

import (
	"testing"

	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/ValentinKolb/ncpr/lib/store"
)

// RunShardStoreBenchmarks runs the dump and load benchmarks for a shard store implementation
func RunShardStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name+"/DumpSparse", func(b *testing.B) {
		benchmarkDump(b, factory(), 10_000)
	})

	b.Run(name+"/DumpDense", func(b *testing.B) {
		benchmarkDump(b, factory(), shardfile.DenseThreshold)
	})

	b.Run(name+"/LoadSparse", func(b *testing.B) {
		benchmarkLoad(b, factory(), 10_000)
	})

	b.Run(name+"/LoadDense", func(b *testing.B) {
		benchmarkLoad(b, factory(), shardfile.DenseThreshold)
	})
}

func benchmarkDump(b *testing.B, s store.IShardStore, filled int) {
	buf := shardfile.NewBuffer()
	fill(b, buf, filled)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Dump(1, buf); err != nil {
			b.Fatalf("failed to dump shard: %v", err)
		}
	}
}

func benchmarkLoad(b *testing.B, s store.IShardStore, filled int) {
	buf := shardfile.NewBuffer()
	fill(b, buf, filled)
	if _, err := s.Dump(1, buf); err != nil {
		b.Fatalf("failed to dump shard: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.LoadInto(1, buf); err != nil {
			b.Fatalf("failed to load shard: %v", err)
		}
	}
}
