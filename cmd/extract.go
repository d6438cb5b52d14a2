package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/export"
	"github.com/sells-group/rera-cli/internal/extract"
	"github.com/sells-group/rera-cli/internal/pipeline"
)

var extractResolved bool

var extractCmd = withTaxonomy(&cobra.Command{
	Use:   "extract <file.html>",
	Short: "Print the raw sections of a page, optionally resolved against the taxonomy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := pipeline.ReadDocument(args[0], "")
		if err != nil {
			return err
		}

		if !extractResolved {
			sections := extract.Sections(doc.Body)
			zap.L().Info("sections extracted", zap.String("document", doc.Name), zap.Int("sections", len(sections)))
			return export.WriteJSON(cmd.OutOrStdout(), sections, cfg.Output.Pretty)
		}

		resolved, err := pipeline.New(tax).Resolve(doc)
		if err != nil {
			return eris.Wrap(err, "extract")
		}
		return export.WriteJSON(cmd.OutOrStdout(), resolved, cfg.Output.Pretty)
	},
})

func init() {
	extractCmd.Flags().BoolVar(&extractResolved, "resolved", false, "resolve labels against the taxonomy")
	rootCmd.AddCommand(extractCmd)
}
