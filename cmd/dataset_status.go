package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var datasetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snapshot table row counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initPostgres(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		counts, err := st.SnapshotCounts(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TABLE\tROWS")
		for _, table := range []string{"facilities", "regions", "roads"} {
			fmt.Fprintf(tw, "%s\t%d\n", table, counts[table])
		}
		return tw.Flush()
	},
}

func init() {
	datasetCmd.AddCommand(datasetStatusCmd)
}
