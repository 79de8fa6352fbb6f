package stats

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/ValentinKolb/ncpr/lib/store"
	"strconv"
	"strings"
)

// ShardSource is the part of the shard store a summary is computed from
type ShardSource interface {
	ListShards() ([]uint16, error)
	Info(shardID uint16) (store.ShardInfo, error)
}

// Summary describes all shards of a store
type Summary struct {
	Shards     int               `json:"shards"`
	Dense      int               `json:"dense"`
	Sparse     int               `json:"sparse"`
	Records    int               `json:"records"`
	TotalBytes int64             `json:"total_bytes"`
	Corrupt    []uint16          `json:"corrupt,omitempty"`
	Fill       DistributionStats `json:"fill"`
	Sizes      *SizeHistogram    `json:"-"`
}

// Summarize inspects every shard of src. Corrupt shards are listed in the
// summary instead of failing it, any other error is returned.
func Summarize(src ShardSource) (*Summary, error) {
	ids, err := src.ListShards()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Sizes: NewSizeHistogram()}
	fill := make([]float64, 0, len(ids))

	for _, id := range ids {
		info, err := src.Info(id)
		if errors.Is(err, shardfile.ErrCorrupt) {
			summary.Corrupt = append(summary.Corrupt, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.Exists {
			// removed after listing
			continue
		}

		summary.Shards++
		if info.Format == shardfile.FormatDense {
			summary.Dense++
		} else {
			summary.Sparse++
		}
		summary.Records += info.Filled
		summary.TotalBytes += info.SizeBytes
		summary.Sizes.AddSample(int(info.SizeBytes))
		fill = append(fill, float64(info.Filled))
	}

	summary.Fill = NewDistributionStats(fill)
	return summary, nil
}

// String renders the summary as a table
func (s *Summary) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Shards")
	addField("Shards", strconv.Itoa(s.Shards))
	addField("Dense", strconv.Itoa(s.Dense))
	addField("Sparse", strconv.Itoa(s.Sparse))
	if len(s.Corrupt) > 0 {
		ids := make([]string, len(s.Corrupt))
		for i, id := range s.Corrupt {
			ids[i] = strconv.Itoa(int(id))
		}
		addField("Corrupt", strings.Join(ids, ", "))
	}

	addSection("Records")
	addField("Total", strconv.Itoa(s.Records))
	addField("Per Shard (mean)", fmt.Sprintf("%.1f", s.Fill.Mean))
	addField("Per Shard (min/max)", fmt.Sprintf("%.0f / %.0f", s.Fill.Min, s.Fill.Max))
	addField("Distribution Quality", fmt.Sprintf("%.3f", s.Fill.DistributionQuality))

	addSection("Files")
	addField("Total Size", fmt.Sprintf("%d bytes", s.TotalBytes))
	if s.Sizes != nil && s.Sizes.GetCount() > 0 {
		addField("Average Size", fmt.Sprintf("%d bytes", s.Sizes.AverageSize()))
		addField("P50 Size (<=)", fmt.Sprintf("%d bytes", s.Sizes.GetPercentileEstimate(50)))
		addField("P90 Size (<=)", fmt.Sprintf("%d bytes", s.Sizes.GetPercentileEstimate(90)))
	}

	return sb.String()
}
