package shard

import (
	"fmt"
	"github.com/ValentinKolb/ncpr/cmd/util"
	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/ValentinKolb/ncpr/lib/stats"
	"github.com/spf13/cobra"
	"strconv"
)

var (
	// InfoCmd prints the state of a single shard
	InfoCmd = &cobra.Command{
		Use:   "info [shard]",
		Short: "Print format, fill level and size of a shard",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	// StatsCmd prints a summary of all shards
	StatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print a summary of all shards in the data directory",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
)

func runInfo(cmd *cobra.Command, args []string) error {
	shardID, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil || shardID >= record.ShardCount {
		return fmt.Errorf("invalid shard %q (expected 0-%d)", args[0], record.ShardCount-1)
	}

	s, err := util.OpenStore(util.GetConfig())
	if err != nil {
		return err
	}

	info, err := s.Info(uint16(shardID))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %-10s: %d\n", "Shard", info.ShardID)
	fmt.Fprintf(out, "  %-10s: %s\n", "File", s.Path(info.ShardID))
	if !info.Exists {
		fmt.Fprintf(out, "  %-10s: %s\n", "Status", "no file (empty)")
		return nil
	}
	fmt.Fprintf(out, "  %-10s: %s\n", "Format", info.Format)
	fmt.Fprintf(out, "  %-10s: %d\n", "Records", info.Filled)
	fmt.Fprintf(out, "  %-10s: %.4f%%\n", "Density", info.Density()*100)
	fmt.Fprintf(out, "  %-10s: %d bytes\n", "Size", info.SizeBytes)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	s, err := util.OpenStore(util.GetConfig())
	if err != nil {
		return err
	}

	summary, err := stats.Summarize(s)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), summary)
	return nil
}
