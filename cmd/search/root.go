package search

import (
	"fmt"
	"github.com/ValentinKolb/ncpr/cmd/util"
	"github.com/ValentinKolb/ncpr/lib/record"
	"github.com/spf13/cobra"
)

// SearchCmd looks up phone numbers
var SearchCmd = &cobra.Command{
	Use:   "search [number]...",
	Short: "Look up one or more phone numbers",
	Long: `Look up one or more 10-digit phone numbers.

For every number one line is printed: the stored record as
(service area code, "preferences", "opt status", phone type)
or None if the number is unknown or malformed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := util.OpenStore(util.GetConfig())
		if err != nil {
			return err
		}

		results, err := s.SearchMany(args)
		if err != nil {
			return err
		}

		// results skip malformed numbers but keep the input order
		out := cmd.OutOrStdout()
		next := 0
		for _, number := range args {
			if _, err := record.ParseKey(number); err != nil {
				fmt.Fprintf(out, "%s: None\n", number)
				continue
			}
			res := results[next]
			next++
			if !res.Found {
				fmt.Fprintf(out, "%s: None\n", number)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", number, res.Record)
		}
		return nil
	},
}
