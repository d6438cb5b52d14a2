package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/export"
	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/pipeline"
)

var (
	batchManifest    string
	batchXLSX        string
	batchJSONL       string
	batchWriteFiles  bool
	batchConcurrency int
)

var batchCmd = withTaxonomy(&cobra.Command{
	Use:   "batch [file.html|dir ...]",
	Short: "Process many project pages in parallel",
	Long:  "Processes pages given as files, directories, or a CSV manifest with path and url columns. Each page is processed independently; slow pages are dropped after batch.document_timeout_secs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		docs, err := batchDocuments(args, batchManifest)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No documents to process.")
			return nil
		}

		st, err := optionalStore(ctx)
		if err != nil {
			return err
		}
		opts := pipeline.BatchOptions{
			Concurrency: cfg.Batch.MaxConcurrentDocuments,
			Timeout:     time.Duration(cfg.Batch.DocumentTimeoutSecs) * time.Second,
		}
		if batchConcurrency > 0 {
			opts.Concurrency = batchConcurrency
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			opts.Sink = st
		}

		results, summary, err := pipeline.New(tax).Batch(ctx, docs, opts)
		if err != nil {
			return err
		}

		if err := writeBatchOutputs(results); err != nil {
			return err
		}

		formatBatchSummary(cmd.OutOrStdout(), summary)
		if summary.Failed > 0 || summary.SaveFailed > 0 {
			return eris.Errorf("batch: %d documents failed, %d results not saved", summary.Failed, summary.SaveFailed)
		}
		return nil
	},
})

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "CSV manifest with path and url columns")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "write a QA workbook to this path")
	batchCmd.Flags().StringVar(&batchJSONL, "jsonl", "", "write results as JSON lines to this path")
	batchCmd.Flags().BoolVar(&batchWriteFiles, "write-files", false, "write record and report files to output.dir")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "override batch.max_concurrent_documents")
	rootCmd.AddCommand(batchCmd)
}

// batchDocuments collects documents from positional paths and the manifest.
func batchDocuments(paths []string, manifest string) ([]model.SourceDocument, error) {
	if len(paths) == 0 && manifest == "" {
		return nil, eris.New("batch: give at least one path or --manifest")
	}

	var docs []model.SourceDocument
	if len(paths) > 0 {
		d, err := pipeline.ReadDocuments(paths)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	if manifest != "" {
		d, err := pipeline.ReadManifest(manifest)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}

func writeBatchOutputs(results []*model.ProcessResult) error {
	if batchWriteFiles {
		for _, r := range results {
			if r == nil {
				continue
			}
			if _, _, err := export.WriteResultFiles(cfg.Output.Dir, r, cfg.Output.Pretty); err != nil {
				return err
			}
		}
	}

	if batchJSONL != "" {
		f, err := os.Create(batchJSONL)
		if err != nil {
			return eris.Wrapf(err, "create %s", batchJSONL)
		}
		if err := export.WriteJSONLines(f, results); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", batchJSONL)
		}
	}

	if batchXLSX != "" {
		if err := export.WriteWorkbook(batchXLSX, results); err != nil {
			return err
		}
		zap.L().Info("qa workbook written", zap.String("path", batchXLSX))
	}
	return nil
}

// formatBatchSummary writes the batch totals to w.
func formatBatchSummary(out io.Writer, s *pipeline.BatchSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Documents:\t%d\n", s.Documents)
	_, _ = fmt.Fprintf(w, "Succeeded:\t%d\n", s.Succeeded)
	_, _ = fmt.Fprintf(w, "Timed out:\t%d\n", s.TimedOut)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	if s.SaveFailed > 0 {
		_, _ = fmt.Fprintf(w, "Save failed:\t%d\n", s.SaveFailed)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Match:\t%d\n", s.Counts.Match)
	_, _ = fmt.Fprintf(w, "Mismatch:\t%d\n", s.Counts.Mismatch)
	_, _ = fmt.Fprintf(w, "Missing in source:\t%d\n", s.Counts.MissingInSource)
	_, _ = fmt.Fprintf(w, "Missing in canonical:\t%d\n", s.Counts.MissingInCanonical)
	_, _ = fmt.Fprintf(w, "Unverifiable:\t%d\n", s.Counts.Unverifiable)
	_ = w.Flush()
}
