package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// WriteJSON encodes v to w, indented when pretty is set.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return eris.Wrap(enc.Encode(v), "export: encode json")
}

// WriteJSONLines writes one compact JSON object per non-nil result.
func WriteJSONLines(w io.Writer, results []*model.ProcessResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "export: encode result %s", r.Document)
		}
	}
	return nil
}

// FileStem names a result's output files after its project key.
func FileStem(r *model.ProcessResult) string {
	stem := normalize.Slug(r.Record.ProjectKey)
	if stem == "" {
		stem = normalize.Slug(filepath.Base(r.Document))
	}
	if stem == "" {
		stem = "result"
	}
	return stem
}

// WriteResultFiles writes <stem>.record.json and <stem>.report.json under
// dir and returns their paths.
func WriteResultFiles(dir string, r *model.ProcessResult, pretty bool) (string, string, error) {
	if r == nil || r.Record == nil || r.Report == nil {
		return "", "", eris.New("export: incomplete result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", eris.Wrapf(err, "export: create %s", dir)
	}

	stem := FileStem(r)
	recordPath := filepath.Join(dir, stem+".record.json")
	reportPath := filepath.Join(dir, stem+".report.json")
	if err := writeFile(recordPath, r.Record, pretty); err != nil {
		return "", "", err
	}
	if err := writeFile(reportPath, r.Report, pretty); err != nil {
		return "", "", err
	}
	return recordPath, reportPath, nil
}

func writeFile(path string, v any, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteJSON(f, v, pretty); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// ReadRecord loads a record previously written by WriteResultFiles.
func ReadRecord(path string) (*model.ProjectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read %s", path)
	}
	var rec model.ProjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrapf(err, "export: decode record %s", path)
	}
	return &rec, nil
}
