package util

import (
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/common"
	"github.com/ValentinKolb/ncpr/lib/lockmgr"
	"github.com/ValentinKolb/ncpr/lib/store"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the configuration flags shared by all commands
func SetupStoreFlags(cmd *cobra.Command) {
	defaults := common.DefaultConfig()

	key := "data-dir"
	cmd.PersistentFlags().String(key, defaults.DataDir, WrapString("Directory holding the shard files (one <shard>.dat file per shard)"))

	key = "sync"
	cmd.PersistentFlags().Bool(key, defaults.Sync, WrapString("Fsync shard files and the data directory when dumping a shard"))

	key = "lock"
	cmd.PersistentFlags().Bool(key, defaults.CrossProcessLock, WrapString("Use file locks (in <data-dir>/.locks) so that concurrent ncpr processes never patch the same shard at once"))

	key = "workers"
	cmd.PersistentFlags().Int(key, defaults.Workers, WrapString("Number of shards patched in parallel"))

	key = "metrics"
	cmd.PersistentFlags().String(key, defaults.MetricsPath, WrapString("Write Prometheus metrics to this file when the command exits (empty = disabled)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("ncpr")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the configuration from viper
func GetConfig() *common.Config {
	return &common.Config{
		DataDir:          viper.GetString("data-dir"),
		Sync:             viper.GetBool("sync"),
		CrossProcessLock: viper.GetBool("lock"),
		Workers:          viper.GetInt("workers"),
		MetricsPath:      viper.GetString("metrics"),
		LogLevel:         viper.GetString("log-level"),
	}
}

// OpenStore opens the shard store described by conf
func OpenStore(conf *common.Config) (*store.ShardStore, error) {
	lockDir := ""
	if conf.CrossProcessLock {
		lockDir = filepath.Join(conf.DataDir, common.LockDirName)
	}

	s, err := store.New(store.Config{
		DataDir: conf.DataDir,
		Sync:    conf.Sync,
		Locks:   lockmgr.NewLockManager(lockDir),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	Logger.Debugf("opened store in %s", conf.DataDir)
	return s, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
