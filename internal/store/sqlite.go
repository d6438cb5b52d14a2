package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rera-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS results (
	id                   TEXT PRIMARY KEY,
	project_key          TEXT NOT NULL UNIQUE,
	source_url           TEXT NOT NULL DEFAULT '',
	document             TEXT NOT NULL DEFAULT '',
	record               TEXT NOT NULL,
	report               TEXT NOT NULL,
	matched              INTEGER NOT NULL DEFAULT 0,
	mismatched           INTEGER NOT NULL DEFAULT 0,
	missing_in_source    INTEGER NOT NULL DEFAULT 0,
	missing_in_canonical INTEGER NOT NULL DEFAULT 0,
	unverifiable         INTEGER NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS result_comparisons (
	project_key     TEXT NOT NULL,
	field_path      TEXT NOT NULL,
	status          TEXT NOT NULL,
	source_label    TEXT NOT NULL DEFAULT '',
	source_value    TEXT NOT NULL DEFAULT '',
	canonical_value TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_results_mismatch ON results(mismatched);
CREATE INDEX IF NOT EXISTS idx_result_comparisons_key ON result_comparisons(project_key);
CREATE INDEX IF NOT EXISTS idx_result_comparisons_status ON result_comparisons(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult deletes any previous rows for the project key and inserts the
// new ones in one transaction.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *model.ProcessResult) error {
	row, err := newResultRow(res)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM result_comparisons WHERE project_key = ?`, row.projectKey); err != nil {
		return eris.Wrapf(err, "sqlite: delete comparisons %s", row.projectKey)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE project_key = ?`, row.projectKey); err != nil {
		return eris.Wrapf(err, "sqlite: delete result %s", row.projectKey)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (id, project_key, source_url, document, record, report,
			matched, mismatched, missing_in_source, missing_in_canonical, unverifiable, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), row.projectKey, row.sourceURL, row.document, string(row.record), string(row.report),
		row.counts.Match, row.counts.Mismatch, row.counts.MissingInSource, row.counts.MissingInCanonical, row.counts.Unverifiable,
		now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert result %s", row.projectKey)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO result_comparisons (project_key, field_path, status, source_label, source_value, canonical_value)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare comparison insert")
	}
	defer stmt.Close()
	for _, c := range comparisonRows(row.projectKey, res.Report) {
		if _, err := stmt.ExecContext(ctx, c...); err != nil {
			return eris.Wrapf(err, "sqlite: insert comparison %s", row.projectKey)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

const sqliteSelect = `SELECT id, project_key, source_url, record, report, matched, mismatched, missing_in_source, missing_in_canonical, unverifiable, created_at, updated_at FROM results`

func (s *SQLiteStore) GetResult(ctx context.Context, projectKey string) (*model.StoredResult, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+` WHERE project_key = ?`, projectKey)
	sr, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get result %s", projectKey)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", projectKey)
	}
	return sr, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error) {
	query := sqliteSelect + ` WHERE 1=1`
	var args []any

	if filter.KeyPrefix != "" {
		query += ` AND substr(project_key, 1, ?) = ?`
		args = append(args, len(filter.KeyPrefix), filter.KeyPrefix)
	}
	if filter.MismatchOnly {
		query += ` AND mismatched > 0`
	}
	query += ` ORDER BY project_key`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var out []model.StoredResult
	for rows.Next() {
		sr, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		out = append(out, *sr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanResult(row scannable) (*model.StoredResult, error) {
	var sr model.StoredResult
	var record, report string

	err := row.Scan(&sr.ID, &sr.ProjectKey, &sr.SourceURL, &record, &report,
		&sr.Counts.Match, &sr.Counts.Mismatch, &sr.Counts.MissingInSource, &sr.Counts.MissingInCanonical, &sr.Counts.Unverifiable,
		&sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decode(&sr, []byte(record), []byte(report)); err != nil {
		return nil, err
	}
	return &sr, nil
}
