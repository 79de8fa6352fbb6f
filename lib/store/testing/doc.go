// Package testing provides standardised tests and benchmarks for
// shard store implementations that satisfy the store.IShardStore interface.
//
// The package contains:
//   - testing: A test suite validating the load, dump and lock contract
//   - benchmark: Performance tests for dumping and loading dense and sparse shards
//
// Example usage:
//
//	factory := func() store.IShardStore {
//		s, _ := store.New(store.Config{DataDir: "/data", Fs: afero.NewMemMapFs()})
//		return s
//	}
//
//	storetesting.RunShardStoreTests(t, "MemStore", factory)
//	storetesting.RunShardStoreBenchmarks(b, "MemStore", factory)
package testing
