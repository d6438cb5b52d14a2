package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/export"
	"github.com/sells-group/rera-cli/internal/pipeline"
)

var (
	runURL    string
	runOutDir string
	runStdout bool
)

var runCmd = withTaxonomy(&cobra.Command{
	Use:   "run <file.html>",
	Short: "Extract, map and reconcile a single project page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		doc, err := pipeline.ReadDocument(args[0], runURL)
		if err != nil {
			return err
		}

		result, err := pipeline.New(tax).Process(ctx, doc)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		st, err := optionalStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.SaveResult(ctx, result); err != nil {
				return eris.Wrap(err, "save result")
			}
		}

		zap.L().Info("document processed",
			zap.String("document", doc.Name),
			zap.String("project_key", result.Record.ProjectKey),
			zap.Int("match", result.Report.Counts.Match),
			zap.Int("mismatch", result.Report.Counts.Mismatch),
			zap.Bool("stored", st != nil),
		)

		if runStdout {
			return export.WriteJSON(cmd.OutOrStdout(), result, cfg.Output.Pretty)
		}

		dir := cfg.Output.Dir
		if runOutDir != "" {
			dir = runOutDir
		}
		recordPath, reportPath, err := export.WriteResultFiles(dir, result, cfg.Output.Pretty)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "record: %s\nreport: %s\n", recordPath, reportPath)
		return err
	},
})

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "page URL the document was fetched from")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "output directory (overrides output.dir)")
	runCmd.Flags().BoolVar(&runStdout, "stdout", false, "print record and report to stdout instead of writing files")
	rootCmd.AddCommand(runCmd)
}
