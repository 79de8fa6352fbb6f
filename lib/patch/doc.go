// Package patch applies batches of record updates to the shard store.
//
// A patch runs in two phases:
//
//   - Prepare reads the whole batch, validates every row and groups the
//     accepted updates by shard, keeping the batch order inside each shard.
//     Invalid rows are collected as rejections and do not stop the patch.
//
//   - Apply visits every touched shard once, in ascending shard order: it
//     takes the shard lock, loads the shard, applies its updates in batch
//     order (so the last update for a number wins) and dumps it. With more
//     than one worker, shards are patched in parallel, each shard still being
//     loaded and dumped exactly once.
//
// A failing shard aborts the patch. Shards that were already dumped keep their
// new content.
package patch
