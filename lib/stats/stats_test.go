package stats

import (
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/ValentinKolb/ncpr/lib/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 5.0, s.Mean)
	assert.InDelta(t, 2.0, s.StdDeviation, 1e-9)
	assert.InDelta(t, 2.0/9.0, s.MinMaxRatio, 1e-9)

	assert.Equal(t, Stats{}, NewStats(nil))
}

func TestDistributionQuality(t *testing.T) {
	even := NewDistributionStats([]float64{10, 10, 10})
	assert.InDelta(t, 1.0, even.DistributionQuality, 1e-9)

	skewed := NewDistributionStats([]float64{1, 1, 100})
	assert.Less(t, skewed.DistributionQuality, 0.5)
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram(10, 100, 1000)

	for _, size := range []int{1, 10, 50, 500, 5000} {
		h.AddSample(size)
	}

	assert.Equal(t, int64(5), h.GetCount())
	assert.Equal(t, (1+10+50+500+5000)/5, h.AverageSize())

	boundaries, percentages := h.SizeDistribution()
	assert.Equal(t, []int{10, 100, 1000}, boundaries)
	assert.Equal(t, []float64{40, 20, 20, 20}, percentages)

	assert.Equal(t, 10, h.GetPercentileEstimate(40))
	assert.Equal(t, 100, h.GetPercentileEstimate(50))
	assert.Equal(t, 2000, h.GetPercentileEstimate(100))
	assert.Equal(t, 0, h.GetPercentileEstimate(101))

	h.Reset()
	assert.Equal(t, int64(0), h.GetCount())
	assert.Equal(t, 0, h.AverageSize())
}

func TestShardSizeBoundaries(t *testing.T) {
	h := NewSizeHistogram()
	h.AddSample(shardfile.EncodedSize(shardfile.FormatSparse, 0))
	h.AddSample(shardfile.EncodedSize(shardfile.FormatDense, shardfile.DenseThreshold))

	_, percentages := h.SizeDistribution()
	assert.Equal(t, 50.0, percentages[0], "empty files go into the first bucket")
	assert.Equal(t, 50.0, percentages[len(ShardSizeBoundaries)-1], "dense files go into the last regular bucket")
	assert.Zero(t, percentages[len(ShardSizeBoundaries)])
}

func TestSummarize(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := store.New(store.Config{DataDir: "/data", Fs: fs})
	require.NoError(t, err)

	b1, b2, err := record.Encode(record.Record{ServiceAreaCode: 1, OptStatus: record.OptActive, PhoneType: 1})
	require.NoError(t, err)

	buf := shardfile.NewBuffer()
	for offset := uint32(0); offset < shardfile.DenseThreshold; offset++ {
		buf.Set(offset, b1, b2)
	}
	_, err = s.Dump(1, buf)
	require.NoError(t, err)

	buf.Reset()
	for offset := uint32(0); offset < 10; offset++ {
		buf.Set(offset, b1, b2)
	}
	_, err = s.Dump(2, buf)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, s.Path(3), []byte{0x09}, 0o644))

	summary, err := Summarize(s)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Shards)
	assert.Equal(t, 1, summary.Dense)
	assert.Equal(t, 1, summary.Sparse)
	assert.Equal(t, shardfile.DenseThreshold+10, summary.Records)
	assert.Equal(t, []uint16{3}, summary.Corrupt)
	assert.Equal(t, int64(shardfile.EncodedSize(shardfile.FormatDense, 0)+shardfile.EncodedSize(shardfile.FormatSparse, 10)), summary.TotalBytes)
	assert.Equal(t, float64(shardfile.DenseThreshold), summary.Fill.Max)

	out := summary.String()
	assert.True(t, strings.Contains(out, "SHARDS"))
	assert.True(t, strings.Contains(out, "Corrupt               : 3"), out)
}

type brokenSource struct{}

func (brokenSource) ListShards() ([]uint16, error) { return []uint16{1}, nil }

func (brokenSource) Info(uint16) (store.ShardInfo, error) {
	return store.ShardInfo{}, errors.New("disk on fire")
}

func TestSummarizeError(t *testing.T) {
	_, err := Summarize(brokenSource{})
	assert.Error(t, err)
}
