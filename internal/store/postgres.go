package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rera-cli/internal/db"
	"github.com/sells-group/rera-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var upsertResultSQL = mustUpsert(db.UpsertConfig{
	Table: "results",
	Columns: []string{
		"id", "project_key", "source_url", "document", "record", "report",
		"matched", "mismatched", "missing_in_source", "missing_in_canonical", "unverifiable",
		"created_at", "updated_at",
	},
	ConflictKeys: []string{"project_key"},
	UpdateCols: []string{
		"source_url", "document", "record", "report",
		"matched", "mismatched", "missing_in_source", "missing_in_canonical", "unverifiable",
		"updated_at",
	},
})

func mustUpsert(cfg db.UpsertConfig) string {
	sql, err := db.UpsertSQL(cfg)
	if err != nil {
		panic(err)
	}
	return sql
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS results (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_key          TEXT NOT NULL UNIQUE,
	source_url           TEXT NOT NULL DEFAULT '',
	document             TEXT NOT NULL DEFAULT '',
	record               JSONB NOT NULL,
	report               JSONB NOT NULL,
	matched              INTEGER NOT NULL DEFAULT 0,
	mismatched           INTEGER NOT NULL DEFAULT 0,
	missing_in_source    INTEGER NOT NULL DEFAULT 0,
	missing_in_canonical INTEGER NOT NULL DEFAULT 0,
	unverifiable         INTEGER NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS result_comparisons (
	project_key     TEXT NOT NULL REFERENCES results(project_key) ON DELETE CASCADE,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveResult upserts the result row and replaces its comparison rows.
func (s *PostgresStore) SaveResult(ctx context.Context, res *model.ProcessResult) error {
	row, err := newResultRow(res)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, upsertResultSQL,
		uuid.New().String(), row.projectKey, row.sourceURL, row.document, row.record, row.report,
		row.counts.Match, row.counts.Mismatch, row.counts.MissingInSource, row.counts.MissingInCanonical, row.counts.Unverifiable,
		now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert result %s", row.projectKey)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM result_comparisons WHERE project_key = $1`, row.projectKey); err != nil {
		return eris.Wrapf(err, "postgres: delete comparisons %s", row.projectKey)
	}
	if _, err := db.CopyFrom(ctx, tx, "result_comparisons", comparisonColumns, comparisonRows(row.projectKey, res.Report)); err != nil {
		return eris.Wrapf(err, "postgres: copy comparisons %s", row.projectKey)
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}

const postgresSelect = `SELECT id, project_key, source_url, record, report, matched, mismatched, missing_in_source, missing_in_canonical, unverifiable, created_at, updated_at FROM results`

func (s *PostgresStore) GetResult(ctx context.Context, projectKey string) (*model.StoredResult, error) {
	sr, err := scanPostgresResult(s.pool.QueryRow(ctx, postgresSelect+` WHERE project_key = $1`, projectKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get result %s", projectKey)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", projectKey)
	}
	return sr, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error) {
	query := postgresSelect + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.KeyPrefix != "" {
		query += fmt.Sprintf(` AND starts_with(project_key, $%d)`, argIdx)
		args = append(args, filter.KeyPrefix)
		argIdx++
	}
	if filter.MismatchOnly {
		query += ` AND mismatched > 0`
	}
	query += ` ORDER BY project_key`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var out []model.StoredResult
	for rows.Next() {
		sr, err := scanPostgresResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		out = append(out, *sr)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func scanPostgresResult(row pgx.Row) (*model.StoredResult, error) {
	var sr model.StoredResult
	var record, report []byte

	err := row.Scan(&sr.ID, &sr.ProjectKey, &sr.SourceURL, &record, &report,
		&sr.Counts.Match, &sr.Counts.Mismatch, &sr.Counts.MissingInSource, &sr.Counts.MissingInCanonical, &sr.Counts.Unverifiable,
		&sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decode(&sr, record, report); err != nil {
		return nil, err
	}
	return &sr, nil
}
