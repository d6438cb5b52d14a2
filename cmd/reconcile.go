package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/export"
	"github.com/sells-group/rera-cli/internal/pipeline"
)

var (
	reconcileRecord         string
	reconcileURL            string
	reconcileFailOnMismatch bool
)

var reconcileCmd = withTaxonomy(&cobra.Command{
	Use:   "reconcile <file.html>",
	Short: "Check a stored canonical record against its source page",
	Long:  "Re-extracts the page independently of the mapper and prints a field-by-field reconciliation report for the given record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reconcileRecord == "" {
			return eris.New("reconcile: --record is required")
		}
		doc, err := pipeline.ReadDocument(args[0], reconcileURL)
		if err != nil {
			return err
		}
		rec, err := export.ReadRecord(reconcileRecord)
		if err != nil {
			return err
		}

		report, err := pipeline.New(tax).Reconcile(doc, rec)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		zap.L().Info("reconciliation complete",
			zap.String("project_key", report.ProjectKey),
			zap.Int("match", report.Counts.Match),
			zap.Int("mismatch", report.Counts.Mismatch),
			zap.Int("unverifiable", report.Counts.Unverifiable),
		)

		if err := export.WriteJSON(cmd.OutOrStdout(), report, cfg.Output.Pretty); err != nil {
			return err
		}
		if reconcileFailOnMismatch && !report.Clean() {
			return eris.Errorf("reconcile: %d mismatched fields", report.Counts.Mismatch)
		}
		return nil
	},
})

func init() {
	reconcileCmd.Flags().StringVar(&reconcileRecord, "record", "", "canonical record JSON file (required)")
	reconcileCmd.Flags().StringVar(&reconcileURL, "url", "", "page URL the document was fetched from")
	reconcileCmd.Flags().BoolVar(&reconcileFailOnMismatch, "fail-on-mismatch", false, "exit non-zero when any field mismatches")
	_ = reconcileCmd.MarkFlagRequired("record")
	rootCmd.AddCommand(reconcileCmd)
}
