// Package store persists processed results: the canonical record and its
// reconciliation report, keyed by project key with replace semantics.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rera-cli/internal/model"
)

// ErrNotFound is returned by GetResult for an unknown project key.
var ErrNotFound = eris.New("store: result not found")

// ResultFilter specifies criteria for listing results.
type ResultFilter struct {
	KeyPrefix    string `json:"key_prefix,omitempty"`
	MismatchOnly bool   `json:"mismatch_only,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for processed results.
type Store interface {
	// SaveResult replaces whatever is stored under the result's project key.
	SaveResult(ctx context.Context, result *model.ProcessResult) error
	GetResult(ctx context.Context, projectKey string) (*model.StoredResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// resultRow is a ProcessResult flattened into column values.
type resultRow struct {
	projectKey string
	sourceURL  string
	document   string
	record     []byte
	report     []byte
	counts     model.StatusCounts
}

func newResultRow(res *model.ProcessResult) (*resultRow, error) {
	if res == nil || res.Record == nil || res.Report == nil {
		return nil, eris.New("store: incomplete result")
	}
	key := strings.TrimSpace(res.Record.ProjectKey)
	if key == "" {
		return nil, eris.New("store: result has no project key")
	}

	record, err := json.Marshal(res.Record)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal record")
	}
	report, err := json.Marshal(res.Report)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal report")
	}
	return &resultRow{
		projectKey: key,
		sourceURL:  res.Record.SourceURL,
		document:   res.Document,
		record:     record,
		report:     report,
		counts:     res.Report.Counts,
	}, nil
}

// decode fills the record and report of a stored result from their JSON.
func decode(sr *model.StoredResult, record, report []byte) error {
	sr.Record = &model.ProjectRecord{}
	if err := json.Unmarshal(record, sr.Record); err != nil {
		return eris.Wrap(err, "store: unmarshal record")
	}
	sr.Report = &model.ReconciliationReport{}
	if err := json.Unmarshal(report, sr.Report); err != nil {
		return eris.Wrap(err, "store: unmarshal report")
	}
	return nil
}

// comparisonColumns are the columns of the per-field comparisons table.
var comparisonColumns = []string{"project_key", "field_path", "status", "source_label", "source_value", "canonical_value"}

func comparisonRows(key string, report *model.ReconciliationReport) [][]any {
	rows := make([][]any, 0, len(report.Comparisons))
	for _, c := range report.Comparisons {
		rows = append(rows, []any{key, c.FieldPath, string(c.Status), c.SourceLabel, c.SourceValue, c.CanonicalValue})
	}
	return rows
}
