// Package cmd implements the command-line interface of ncpr.
//
// The package is organized into several subpackages:
//
//   - patch: Applies a CSV batch of record updates to the store
//   - search: Looks up one or more phone numbers
//   - shard: Inspects single shards (info) and the whole store (stats)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set through environment variables named NCPR_<FLAG>
// (e.g. NCPR_DATA_DIR=/srv/ncpr) or in a .env / .env.local file.
//
// See ncpr -help for a list of all commands.
package cmd
