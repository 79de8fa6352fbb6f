package common

import (
	"bytes"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/afero"
	"io"
)

// --------------------------------------------------------------------------
// Metric names
// --------------------------------------------------------------------------

const (
	MetricShardLoads        = "ncpr_shard_loads_total"
	MetricShardLoadMissing  = "ncpr_shard_loads_missing_total"
	MetricShardDumpDense    = `ncpr_shard_dumps_total{format="dense"}`
	MetricShardDumpSparse   = `ncpr_shard_dumps_total{format="sparse"}`
	MetricShardDumpDuration = "ncpr_shard_dump_duration_seconds"
	MetricPatchRecords      = "ncpr_patch_records_total"
	MetricPatchRejected     = "ncpr_patch_rejected_total"
	MetricSearchFound       = `ncpr_search_total{result="found"}`
	MetricSearchAbsent      = `ncpr_search_total{result="absent"}`
	MetricSearchError       = `ncpr_search_total{result="error"}`
)

// metricSet holds all metrics of the process
var metricSet = metrics.NewSet()

// Counter returns the counter with the given name, creating it on first use
func Counter(name string) *metrics.Counter {
	return metricSet.GetOrCreateCounter(name)
}

// Histogram returns the histogram with the given name, creating it on first use
func Histogram(name string) *metrics.Histogram {
	return metricSet.GetOrCreateHistogram(name)
}

// WriteMetrics writes all metrics in Prometheus text format to w
func WriteMetrics(w io.Writer) {
	metricSet.WritePrometheus(w)
}

// DumpMetrics writes all metrics to the file at path (replacing it)
func DumpMetrics(fs afero.Fs, path string) error {
	var buf bytes.Buffer
	WriteMetrics(&buf)
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
