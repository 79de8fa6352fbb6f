package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultDataDir  = "/opt/data/ncpr"
	DefaultLogLevel = "info"
	// LockDirName is the sub directory of the data dir holding the shard lock files
	LockDirName = ".locks"
)

// --------------------------------------------------------------------------
// Configuration struct
// --------------------------------------------------------------------------

// Config holds all configuration parameters of an ncpr invocation.
type Config struct {
	// DataDir is the directory holding one file per shard
	DataDir string

	// Sync controls whether shard files (and the data dir) are fsynced before
	// and after the atomic rename of a dump
	Sync bool

	// CrossProcessLock enables flock based shard locks so that concurrent
	// patch processes cannot interleave on the same shard
	CrossProcessLock bool

	// Workers is the number of shards patched in parallel
	Workers int

	// MetricsPath is the file the Prometheus metrics are written to on exit (empty = disabled)
	MetricsPath string

	// Logging configuration
	LogLevel string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:          DefaultDataDir,
		Sync:             true,
		CrossProcessLock: true,
		Workers:          1,
		LogLevel:         DefaultLogLevel,
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1 (got %d)", c.Workers)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)
	addField("Sync", strconv.FormatBool(c.Sync))
	addField("Cross Process Lock", strconv.FormatBool(c.CrossProcessLock))

	// Patch
	addSection("Patch")
	addField("Workers", strconv.Itoa(c.Workers))

	// Logging and metrics
	addSection("Logging")
	addField("Log Level", c.LogLevel)
	metricsPath := c.MetricsPath
	if metricsPath == "" {
		metricsPath = "disabled"
	}
	addField("Metrics", metricsPath)

	return sb.String()
}
