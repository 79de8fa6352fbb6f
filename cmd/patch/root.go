package patch

import (
	"fmt"
	"github.com/ValentinKolb/ncpr/cmd/util"
	"github.com/ValentinKolb/ncpr/lib/batch"
	patchengine "github.com/ValentinKolb/ncpr/lib/patch"
	"github.com/spf13/cobra"
	"io"
	"os"
)

var (
	inputPath string
	noHeader  bool

	// PatchCmd applies a CSV batch to the store
	PatchCmd = &cobra.Command{
		Use:   "patch",
		Short: "Apply a CSV batch of record updates",
		Long: `Apply a CSV batch of record updates to the store.

The batch is read from stdin (or --input) and must have the columns
service_area_code, phone_number, preferences, opt_status, phone_type.
Invalid rows are reported and skipped, all other rows are applied.
Every touched shard is loaded and written exactly once.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
)

func init() {
	PatchCmd.Flags().StringVarP(&inputPath, "input", "i", "", util.WrapString("Read the batch from this file instead of stdin"))
	PatchCmd.Flags().BoolVar(&noHeader, "no-header", false, util.WrapString("The first row of the batch is data, not a header"))
}

func run(cmd *cobra.Command, _ []string) error {
	var in io.Reader = cmd.InOrStdin()
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open batch: %w", err)
		}
		defer f.Close()
		in = f
	}

	reader := batch.NewReader(in)
	if noHeader {
		reader.WithoutHeader()
	}

	conf := util.GetConfig()
	s, err := util.OpenStore(conf)
	if err != nil {
		return err
	}

	plan, err := patchengine.Prepare(reader)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, rejection := range plan.Rejected {
		fmt.Fprintln(errOut, rejection)
	}
	fmt.Fprintf(out, "patching %d files\n", len(plan.Shards))

	engine := patchengine.NewEngine(s, patchengine.Options{Workers: conf.Workers})
	report, err := engine.Apply(cmd.Context(), plan)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "patched a total of %d records\n", report.Records)
	if n := len(report.Rejected); n > 0 {
		fmt.Fprintf(out, "rejected %d rows\n", n)
	}
	return nil
}
