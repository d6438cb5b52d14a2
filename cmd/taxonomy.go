package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/rera-cli/internal/export"
	"github.com/sells-group/rera-cli/internal/taxonomy"
)

var taxonomyJSON bool

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and validate label taxonomies",
}

// -- taxonomy validate --

var taxonomyValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>",
	Short: "Validate a taxonomy file",
	Long:  "Loads a taxonomy file and reports every validation problem. Exits non-zero when the file is invalid.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := taxonomy.Load(args[0])
		if err != nil {
			return err
		}
		s := t.Stats()
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (version %s, %d sections, %d fields, %d variants)\n",
			args[0], s.Version, s.Sections, s.Fields, s.Variants)
		return err
	},
}

// -- taxonomy show --

var taxonomyShowCmd = withTaxonomy(&cobra.Command{
	Use:   "show",
	Short: "Show the loaded taxonomy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if taxonomyJSON {
			return export.WriteJSON(cmd.OutOrStdout(), tax.Stats(), cfg.Output.Pretty)
		}
		formatTaxonomy(cmd.OutOrStdout(), tax)
		return nil
	},
})

func init() {
	taxonomyShowCmd.Flags().BoolVar(&taxonomyJSON, "json", false, "print counts as JSON")

	taxonomyCmd.AddCommand(taxonomyValidateCmd)
	taxonomyCmd.AddCommand(taxonomyShowCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

// formatTaxonomy writes one row per section with its field count.
func formatTaxonomy(out io.Writer, t *taxonomy.Taxonomy) {
	s := t.Stats()
	_, _ = fmt.Fprintf(out, "Taxonomy version %s: %d sections, %d fields, %d variants, %d titles\n\n",
		s.Version, s.Sections, s.Fields, s.Variants, s.Titles)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SECTION\tREPEATED\tFIELDS")
	for _, key := range t.SectionKeys() {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%d\n", key, t.Repeated(key), s.PerField[key])
	}
	_ = w.Flush()
}
