// Package export writes processed results for downstream consumers: JSON
// documents for the record and report, and an XLSX workbook for QA review.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rera-cli/internal/model"
)

// Sheet names of the QA workbook.
const (
	SheetSummary     = "summary"
	SheetComparisons = "comparisons"
)

var summaryHeader = []string{
	"document", "project_key", "source_url", "taxonomy_version",
	"match", "mismatch", "missing_in_source", "missing_in_canonical", "unverifiable", "total",
}

var comparisonsHeader = []string{
	"project_key", "field_path", "status", "source_label", "source_value", "canonical_value",
}

// WriteWorkbook saves a QA workbook to path: one summary row per result and
// one comparisons row per comparison that is not a match. Nil results are
// skipped.
func WriteWorkbook(path string, results []*model.ProcessResult) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}
	comparisons, err := f.AddSheet(SheetComparisons)
	if err != nil {
		return eris.Wrap(err, "xlsx: add comparisons sheet")
	}

	addRow(summary, summaryHeader)
	addRow(comparisons, comparisonsHeader)

	for _, r := range results {
		if r == nil || r.Record == nil || r.Report == nil {
			continue
		}
		c := r.Report.Counts
		row := summary.AddRow()
		row.AddCell().SetString(r.Document)
		row.AddCell().SetString(r.Record.ProjectKey)
		row.AddCell().SetString(r.Record.SourceURL)
		row.AddCell().SetString(r.Report.TaxonomyVersion)
		for _, n := range []int{c.Match, c.Mismatch, c.MissingInSource, c.MissingInCanonical, c.Unverifiable, c.Total()} {
			row.AddCell().SetInt(n)
		}

		for _, cmp := range r.Report.Comparisons {
			if cmp.Status == model.StatusMatch {
				continue
			}
			addRow(comparisons, []string{
				r.Report.ProjectKey, cmp.FieldPath, string(cmp.Status),
				cmp.SourceLabel, cmp.SourceValue, cmp.CanonicalValue,
			})
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// ReadSheet reads one sheet of a workbook back as string rows.
func ReadSheet(path, name string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", name)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
