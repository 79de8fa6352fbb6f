package cmd

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the defaults of all flags, cobra keeps parsed values between executions
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with the given stdin and arguments
func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(RootCmd)

	var out, errOut bytes.Buffer
	RootCmd.SetIn(stdin)
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPatchAndSearch(t *testing.T) {
	dataDir := t.TempDir()
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")

	batch := "service_area_code,phone_number,preferences,opt_status,phone_type\n" +
		"5,1234567890,1#3,A,2\n" +
		"5,123456789,1,A,2\n" +
		"7,0042000001,0,D,1\n"

	out, errOut, err := execute(t, strings.NewReader(batch), "patch", "--data-dir", dataDir, "--metrics", metricsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "patching 2 files\n")
	assert.Contains(t, out, "patched a total of 2 records\n")
	assert.Contains(t, errOut, `line 3: rejected "123456789"`)
	assert.FileExists(t, metricsPath)

	out, _, err = execute(t, nil, "search", "--data-dir", dataDir, "--metrics", "", "1234567890", "1234567891", "12345", "0042000001")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`1234567890: (5, "1#3", "A", 2)`,
		`1234567891: None`,
		`12345: None`,
		`0042000001: (7, "0", "D", 1)`,
	}, "\n")+"\n", out)
}

func TestInfoAndStats(t *testing.T) {
	dataDir := t.TempDir()

	_, _, err := execute(t, strings.NewReader("5,1234567890,1#3,A,2\n"), "patch", "--data-dir", dataDir, "--metrics", "", "--no-header")
	require.NoError(t, err)

	out, _, err := execute(t, nil, "info", "--data-dir", dataDir, "1234")
	require.NoError(t, err)
	assert.Contains(t, out, "sparse")
	assert.Contains(t, out, "6 bytes")

	out, _, err = execute(t, nil, "info", "--data-dir", dataDir, "17")
	require.NoError(t, err)
	assert.Contains(t, out, "no file")

	_, _, err = execute(t, nil, "info", "--data-dir", dataDir, "10000")
	assert.Error(t, err)

	out, _, err = execute(t, nil, "stats", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "SHARDS")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "ncpr v"+Version+"\n", out)
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, nil, "frobnicate")
	assert.Error(t, err)

	_, _, err = execute(t, nil)
	assert.Error(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	_, _, err := execute(t, nil, "stats", "--data-dir", t.TempDir(), "--workers", "0")
	assert.Error(t, err)
}
