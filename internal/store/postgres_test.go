package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var resultCols = []string{
	"id", "project_key", "source_url", "record", "report",
	"matched", "mismatched", "missing_in_source", "missing_in_canonical", "unverifiable", "created_at", "updated_at",
}

func anyArgs(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = pgxmock.AnyArg()
	}
	return out
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS results`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	res := sampleResult("PCGRERA1", "Raipur", false)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "results" .* ON CONFLICT \("project_key"\) DO UPDATE SET`).
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM result_comparisons WHERE project_key = \$1`).
		WithArgs("PCGRERA1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCopyFrom(pgx.Identifier{"result_comparisons"}, comparisonColumns).WillReturnResult(2)
	mock.ExpectCommit()

	require.NoError(t, s.SaveResult(context.Background(), res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResult_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "results"`).
		WithArgs(anyArgs(13)...).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := s.SaveResult(context.Background(), sampleResult("PCGRERA1", "Raipur", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert result PCGRERA1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	res := sampleResult("PCGRERA1", "Raipur", false)
	row, err := newResultRow(res)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, project_key, .* FROM results WHERE project_key = \$1`).
		WithArgs("PCGRERA1").
		WillReturnRows(pgxmock.NewRows(resultCols).
			AddRow("id-1", "PCGRERA1", row.sourceURL, row.record, row.report, 1, 0, 0, 0, 1, now, now))

	got, err := s.GetResult(context.Background(), "PCGRERA1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, 1, got.Counts.Unverifiable)
	district, _ := got.Record.Project.Lookup("district")
	assert.Equal(t, "Raipur", district)
	assert.Len(t, got.Report.Comparisons, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM results WHERE project_key = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetResult(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResults_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE true AND starts_with\(project_key, \$1\) AND mismatched > 0 ORDER BY project_key LIMIT \$2 OFFSET \$3`).
		WithArgs("PCG", 5, 10).
		WillReturnRows(pgxmock.NewRows(resultCols))

	out, err := s.ListResults(context.Background(), ResultFilter{KeyPrefix: "PCG", MismatchOnly: true, Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResults_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`ORDER BY project_key LIMIT \$1$`).
		WithArgs(defaultListLimit).
		WillReturnError(errors.New("conn reset"))

	_, err := s.ListResults(context.Background(), ResultFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list results")
	assert.NoError(t, mock.ExpectationsWereMet())
}
