// Package common provides the ambient infrastructure shared by all ncpr
// packages and commands.
//
// The package focuses on:
//   - Configuration structure for a single ncpr invocation (data directory,
//     durability, locking, parallelism, logging and metrics)
//   - Custom logging implementation integrated with Dragonboat's logger
//     package, so every package obtains its logger with logger.GetLogger(name)
//   - A process wide VictoriaMetrics set with the counters and histograms
//     of the storage engine, exported in Prometheus text format
//
// Key Components:
//
//   - Config: parameters of an invocation, filled from cobra flags and
//     environment variables (NCPR_<FLAG>) by the cmd package.
//
//   - Logger: leveled logger writing "LEVEL | name | message" lines to stderr.
//     InitLoggers installs the factory and sets the level of the named
//     loggers ("store", "patch", "lockmgr", "cli").
//
//   - Metrics: Counter and Histogram return the named metric, WriteMetrics and
//     DumpMetrics export the whole set.
package common
