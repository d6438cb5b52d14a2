package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.html", "<p>b</p>")
	writeFile(t, dir, "a.HTM", "<p>a</p>")
	writeFile(t, dir, "notes.txt", "skip")
	single := writeFile(t, t.TempDir(), "single.txt", "<p>s</p>")

	docs, err := ReadDocuments([]string{dir, single})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, filepath.Join(dir, "a.HTM"), docs[0].Name)
	assert.Equal(t, filepath.Join(dir, "b.html"), docs[1].Name)
	assert.Equal(t, single, docs[2].Name)
	assert.Equal(t, "<p>s</p>", string(docs[2].Body))

	_, err = ReadDocuments([]string{filepath.Join(dir, "missing.html")})
	assert.Error(t, err)
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.html", "<p>1</p>")
	writeFile(t, dir, "two.html", "<p>2</p>")
	manifest := writeFile(t, dir, "manifest.csv",
		"Path,URL\none.html,https://rera.cgstate.gov.in/p?id=1\n,\ntwo.html\n")

	docs, err := ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "https://rera.cgstate.gov.in/p?id=1", docs[0].URL)
	assert.Equal(t, "", docs[1].URL)
	assert.Equal(t, "<p>2</p>", string(docs[1].Body))
}

func TestReadManifest_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadManifest(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)

	noRows := writeFile(t, dir, "empty.csv", "path,url\n")
	_, err = ReadManifest(noRows)
	assert.ErrorContains(t, err, "no data rows")

	noPath := writeFile(t, dir, "nopath.csv", "file,url\na.html,x\n")
	_, err = ReadManifest(noPath)
	assert.ErrorContains(t, err, "missing required column")
}
