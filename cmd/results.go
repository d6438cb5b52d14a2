package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rera-cli/internal/export"
	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored results",
	Long:  "Commands for listing and viewing records and reconciliation reports saved to the result store.",
}

// -- results list --

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		prefix, _ := cmd.Flags().GetString("prefix")
		mismatchOnly, _ := cmd.Flags().GetBool("mismatch-only")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		results, err := st.ListResults(ctx, store.ResultFilter{
			KeyPrefix:    prefix,
			MismatchOnly: mismatchOnly,
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		formatResultsList(cmd.OutOrStdout(), results)
		return nil
	},
}

// -- results show --

var resultsShowCmd = &cobra.Command{
	Use:   "show <project-key>",
	Short: "Show the record and report stored for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := st.GetResult(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results show")
		}

		reportOnly, _ := cmd.Flags().GetBool("report")
		if reportOnly {
			return export.WriteJSON(cmd.OutOrStdout(), res.Report, cfg.Output.Pretty)
		}
		return export.WriteJSON(cmd.OutOrStdout(), res, cfg.Output.Pretty)
	},
}

func init() {
	resultsListCmd.Flags().String("prefix", "", "filter by project key prefix")
	resultsListCmd.Flags().Bool("mismatch-only", false, "only results with at least one mismatch")
	resultsListCmd.Flags().Int("limit", 50, "max number of results to display")
	resultsListCmd.Flags().Int("offset", 0, "skip this many results")

	resultsShowCmd.Flags().Bool("report", false, "print only the reconciliation report")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	rootCmd.AddCommand(resultsCmd)
}

// formatResultsList writes a tabular list of stored results to w.
func formatResultsList(out io.Writer, results []model.StoredResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROJECT_KEY\tMATCH\tMISMATCH\tMISS_SRC\tMISS_CANON\tUNVERIFIABLE\tUPDATED")
	for _, r := range results {
		c := r.Counts
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			truncate(r.ProjectKey, 48),
			c.Match, c.Mismatch, c.MissingInSource, c.MissingInCanonical, c.Unverifiable,
			r.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
