package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_SaveAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveResult(ctx, sampleResult("PCGRERA1", "Raipur", false)))

	got, err := st.GetResult(ctx, "PCGRERA1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "PCGRERA1", got.ProjectKey)
	assert.Equal(t, "https://rera.cgstate.gov.in/p?id=PCGRERA1", got.SourceURL)
	assert.Equal(t, 1, got.Counts.Match)
	assert.False(t, got.CreatedAt.IsZero())

	district, ok := got.Record.Project.Lookup("district")
	require.True(t, ok)
	assert.Equal(t, "Raipur", district)
	require.Len(t, got.Report.Comparisons, 2)
	assert.Equal(t, "project.district", got.Report.Comparisons[0].FieldPath)
}

func TestSQLite_SaveReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveResult(ctx, sampleResult("PCGRERA1", "Raipur", false)))
	require.NoError(t, st.SaveResult(ctx, sampleResult("PCGRERA1", "Durg", true)))

	got, err := st.GetResult(ctx, "PCGRERA1")
	require.NoError(t, err)
	district, _ := got.Record.Project.Lookup("district")
	assert.Equal(t, "Durg", district)
	assert.Equal(t, 1, got.Counts.Mismatch)

	all, err := st.ListResults(ctx, ResultFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM result_comparisons WHERE project_key = ?`, "PCGRERA1").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetResult(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_ListFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveResult(ctx, sampleResult("PCGRERA2", "Durg", true)))
	require.NoError(t, st.SaveResult(ctx, sampleResult("PCGRERA1", "Raipur", false)))
	require.NoError(t, st.SaveResult(ctx, sampleResult("OTHER9", "Raipur", false)))

	all, err := st.ListResults(ctx, ResultFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "OTHER9", all[0].ProjectKey)
	assert.Equal(t, "PCGRERA1", all[1].ProjectKey)

	prefixed, err := st.ListResults(ctx, ResultFilter{KeyPrefix: "PCGRERA"})
	require.NoError(t, err)
	assert.Len(t, prefixed, 2)

	bad, err := st.ListResults(ctx, ResultFilter{MismatchOnly: true})
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, "PCGRERA2", bad[0].ProjectKey)

	page, err := st.ListResults(ctx, ResultFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "PCGRERA1", page[0].ProjectKey)
}

func TestSQLite_SaveRejectsIncomplete(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.SaveResult(context.Background(), sampleResult("", "Raipur", false))
	assert.Error(t, err)
}
