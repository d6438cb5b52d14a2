package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/config"
	"github.com/sells-group/rera-cli/internal/taxonomy"
)

// needsTaxonomy marks commands whose PersistentPreRunE loads the taxonomy.
const needsTaxonomy = "taxonomy"

var (
	cfg          *config.Config
	tax          *taxonomy.Taxonomy
	taxonomyPath string
)

var rootCmd = &cobra.Command{
	Use:   "rera-cli",
	Short: "RERA project page extraction and reconciliation",
	Long:  "Extracts project detail pages into canonical records, reconciles each record field by field against its source page, and persists or exports the results.",
	// Runtime failures print the error only; usage is for argument mistakes.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if taxonomyPath != "" {
			c.Taxonomy.Path = taxonomyPath
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if _, ok := cmd.Annotations[needsTaxonomy]; ok {
			t, err := loadTaxonomy(cfg.Taxonomy.Path)
			if err != nil {
				return err
			}
			tax = t
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadTaxonomy reads the taxonomy at path, or the embedded default when the
// path is empty.
func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	var (
		t   *taxonomy.Taxonomy
		err error
	)
	if path == "" {
		t, err = taxonomy.Default()
	} else {
		t, err = taxonomy.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	zap.L().Debug("taxonomy loaded",
		zap.String("path", path),
		zap.String("version", t.Version()),
		zap.Int("sections", len(t.SectionKeys())),
	)
	return t, nil
}

func withTaxonomy(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needsTaxonomy] = "required"
	return cmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy YAML file (overrides taxonomy.path)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
