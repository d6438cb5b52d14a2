package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rera-cli/internal/model"
)

func sampleResult(key, district string, mismatch bool) *model.ProcessResult {
	rec := model.NewProjectRecord("2024.1")
	rec.ProjectKey = key
	rec.SourceURL = "https://rera.cgstate.gov.in/p?id=" + key
	rec.Project.Set("district", model.TextValue(model.TypeString, district))

	report := &model.ReconciliationReport{ProjectKey: key, TaxonomyVersion: "2024.1"}
	status := model.StatusMatch
	if mismatch {
		status = model.StatusMismatch
	}
	report.Comparisons = []model.FieldComparison{
		{FieldPath: "project.district", Status: status, SourceLabel: "District", SourceValue: "Raipur", CanonicalValue: district},
		{FieldPath: "documents.title_deed", Status: model.StatusUnverifiable, SourceLabel: "Title Deed", SourceValue: "Preview"},
	}
	for _, c := range report.Comparisons {
		report.Counts.Add(c.Status)
	}
	return &model.ProcessResult{Document: key + ".html", Record: rec, Report: report}
}

func TestNewResultRow(t *testing.T) {
	row, err := newResultRow(sampleResult("PCGRERA1", "Raipur", false))
	require.NoError(t, err)
	assert.Equal(t, "PCGRERA1", row.projectKey)
	assert.Equal(t, "PCGRERA1.html", row.document)
	assert.Equal(t, 1, row.counts.Match)
	assert.Equal(t, 1, row.counts.Unverifiable)
	assert.Contains(t, string(row.record), `"district"`)
}

func TestNewResultRow_Rejects(t *testing.T) {
	_, err := newResultRow(nil)
	assert.Error(t, err)

	res := sampleResult(" ", "Raipur", false)
	_, err = newResultRow(res)
	assert.ErrorContains(t, err, "no project key")

	res.Report = nil
	_, err = newResultRow(res)
	assert.ErrorContains(t, err, "incomplete result")
}

func TestComparisonRows(t *testing.T) {
	res := sampleResult("K", "Durg", true)
	rows := comparisonRows("K", res.Report)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"K", "project.district", "mismatch", "District", "Raipur", "Durg"}, rows[0])
	assert.Len(t, rows[1], len(comparisonColumns))
}
