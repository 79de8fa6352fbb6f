package stats

import (
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"math"
	"sync"
)

// ShardSizeBoundaries are the default bucket boundaries (in bytes) for shard files.
// The smallest bucket holds empty sparse files, the largest one dense files.
var ShardSizeBoundaries = []int{
	shardfile.EncodedSize(shardfile.FormatSparse, 0),
	shardfile.EncodedSize(shardfile.FormatSparse, 1_000),
	shardfile.EncodedSize(shardfile.FormatSparse, 10_000),
	shardfile.EncodedSize(shardfile.FormatSparse, 100_000),
	shardfile.EncodedSize(shardfile.FormatSparse, shardfile.DenseThreshold-1),
	shardfile.EncodedSize(shardfile.FormatDense, shardfile.DenseThreshold),
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// SizeHistogram tracks the distribution of sizes in fixed buckets.
// A sample falls into the first bucket whose boundary is >= the sample,
// larger samples go into an extra overflow bucket.
//
// Thread-safe: all methods are safe for concurrent use
type SizeHistogram struct {
	mutex      sync.RWMutex
	boundaries []int
	buckets    []int64
	count      int64
	sum        int64
}

// NewSizeHistogram creates a histogram with the given ascending boundaries
// (ShardSizeBoundaries if none are given)
func NewSizeHistogram(boundaries ...int) *SizeHistogram {
	if len(boundaries) == 0 {
		boundaries = ShardSizeBoundaries
	}
	return &SizeHistogram{
		boundaries: boundaries,
		buckets:    make([]int64, len(boundaries)+1),
	}
}

// AddSample adds a size sample to the histogram
func (h *SizeHistogram) AddSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	bucketIndex := len(h.boundaries)
	for i, boundary := range h.boundaries {
		if size <= boundary {
			bucketIndex = i
			break
		}
	}

	h.buckets[bucketIndex]++
	h.count++
	h.sum += int64(size)
}

// GetCount returns the total number of samples
func (h *SizeHistogram) GetCount() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// AverageSize returns the average size across all samples
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// GetPercentileEstimate returns the upper bound of the bucket containing
// the given percentile (0-100). Samples in the overflow bucket are estimated
// as twice the last boundary.
func (h *SizeHistogram) GetPercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	targetCount := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	var cumulativeCount int64

	for i, count := range h.buckets {
		cumulativeCount += count
		if cumulativeCount >= targetCount && cumulativeCount > 0 {
			if i < len(h.boundaries) {
				return h.boundaries[i]
			}
			return h.boundaries[len(h.boundaries)-1] * 2
		}
	}

	return int(h.sum / h.count)
}

// Reset clears all histogram data
func (h *SizeHistogram) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.count = 0
	h.sum = 0
	clear(h.buckets)
}

// SizeDistribution returns the bucket boundaries and the percentage of
// samples in each bucket (one more entry than boundaries, for the overflow)
func (h *SizeHistogram) SizeDistribution() ([]int, []float64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	percentages := make([]float64, len(h.buckets))
	if h.count == 0 {
		return h.boundaries, percentages
	}

	for i, count := range h.buckets {
		percentages[i] = float64(count) * 100.0 / float64(h.count)
	}
	return h.boundaries, percentages
}
