package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rera-cli/internal/model"
)

// htmlExts are the file extensions picked up when a directory is read.
var htmlExts = map[string]bool{".html": true, ".htm": true, ".aspx": true}

// ReadDocument loads one already-fetched page from disk.
func ReadDocument(path, pageURL string) (model.SourceDocument, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return model.SourceDocument{}, eris.Wrapf(err, "pipeline: read %s", path)
	}
	return model.SourceDocument{Name: path, URL: strings.TrimSpace(pageURL), Body: body}, nil
}

// ReadDocuments loads every path. Directories contribute their HTML files
// in name order.
func ReadDocuments(paths []string) ([]model.SourceDocument, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: stat %s", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: read dir %s", p)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && htmlExts[strings.ToLower(filepath.Ext(e.Name()))] {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	docs := make([]model.SourceDocument, 0, len(files))
	for _, f := range files {
		doc, err := ReadDocument(f, "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadManifest loads the documents listed in a CSV manifest with a "path"
// column and an optional "url" column. Relative paths resolve against the
// manifest's directory.
func ReadManifest(manifestPath string) ([]model.SourceDocument, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: open")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "manifest: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("manifest: csv has no data rows")
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIdx["path"]; !ok {
		return nil, eris.Errorf("manifest: missing required column %q", "path")
	}

	dir := filepath.Dir(manifestPath)
	var docs []model.SourceDocument
	for _, row := range records[1:] {
		p := getCol(row, colIdx, "path")
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		doc, err := ReadDocument(p, getCol(row, colIdx, "url"))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func getCol(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
