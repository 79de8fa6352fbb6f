// Package stats summarizes the state of a shard store: how many shards exist,
// which format they are stored in, how evenly the records are spread over the
// shards and how large the shard files are.
//
// Summaries are computed from the shard files alone (see store.ShardStore.Info),
// every existing shard is decoded once.
package stats
