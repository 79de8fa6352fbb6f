package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/ncpr/cmd/patch"
	"github.com/ValentinKolb/ncpr/cmd/search"
	"github.com/ValentinKolb/ncpr/cmd/shard"
	"github.com/ValentinKolb/ncpr/cmd/util"
	"github.com/ValentinKolb/ncpr/lib/common"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ncpr",
		Short: "sharded phone number preference store",
		Long: fmt.Sprintf(`ncpr (v%s)

A file based store for the preferences of 10-digit phone numbers.
Numbers are split into 10,000 shards (one file each) and stored
as 2-byte records, either densely or as a sorted sparse list.`, Version),
		Args:               cobra.NoArgs,
		PersistentPreRunE:  processConfig,
		PersistentPostRunE: writeMetrics,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errors.New("no command given")
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ncpr",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ncpr v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(patch.PatchCmd)
	RootCmd.AddCommand(search.SearchCmd)
	RootCmd.AddCommand(shard.InfoCmd)
	RootCmd.AddCommand(shard.StatsCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStoreFlags(RootCmd)
}

// processConfig binds the flags, installs the loggers and validates the configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf := util.GetConfig()
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return err
	}

	util.Logger.Debugf("configuration:%s", conf)
	return nil
}

// writeMetrics dumps the collected metrics if a metrics file is configured
func writeMetrics(_ *cobra.Command, _ []string) error {
	path := util.GetConfig().MetricsPath
	if path == "" {
		return nil
	}
	return common.DumpMetrics(afero.NewOsFs(), path)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// A running patch stops before the next shard on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
