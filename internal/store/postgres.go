package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/db"
	"github.com/offset-permanence/curate-cli/internal/model"
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

var unmatchedColumns = []string{"run_id", "field", "raw_value", "issue_type", "mentions", "records"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
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

// NewPostgresFromPool wraps an existing pool. The caller owns the pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source     TEXT NOT NULL,
	fields     JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS field_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	field       TEXT NOT NULL,
	status      TEXT NOT NULL,
	entries     INTEGER NOT NULL DEFAULT 0,
	matched     INTEGER NOT NULL DEFAULT 0,
	unmatched   INTEGER NOT NULL DEFAULT 0,
	incomplete  INTEGER NOT NULL DEFAULT 0,
	notes       INTEGER NOT NULL DEFAULT 0,
	tiers       JSONB,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (run_id, field)
);

CREATE TABLE IF NOT EXISTS unmatched_values (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	field      TEXT NOT NULL,
	raw_value  TEXT NOT NULL,
	issue_type TEXT NOT NULL,
	mentions   INTEGER NOT NULL,
	records    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_field_runs_run_id ON field_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_unmatched_run_field ON unmatched_values(run_id, field);
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

func (s *PostgresStore) CreateRun(ctx context.Context, source string, fields []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal fields")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, fields, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, source, fieldsJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Fields:    fields,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var fieldsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, source, fields, status, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Source, &fieldsJSON, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(fieldsJSON, &r.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal fields")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, fields, status, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var fieldsJSON []byte
		if err := rows.Scan(&r.ID, &r.Source, &fieldsJSON, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(fieldsJSON, &r.Fields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal fields")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RecordField(ctx context.Context, fr *model.FieldRun, unmatched []model.UnmatchedValue) error {
	if fr.ID == "" {
		fr.ID = uuid.New().String()
	}
	if fr.CreatedAt.IsZero() {
		fr.CreatedAt = time.Now().UTC()
	}
	tiersJSON, err := json.Marshal(fr.Tiers)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tiers")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO field_runs (id, run_id, field, status, entries, matched, unmatched, incomplete, notes, tiers, error, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		fr.ID, fr.RunID, fr.Field, string(fr.Status), fr.Entries, fr.Matched, fr.Unmatched,
		fr.Incomplete, fr.Notes, tiersJSON, fr.Error, fr.DurationMs, fr.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert field run %s/%s", fr.RunID, fr.Field)
	}

	rows := make([][]any, len(unmatched))
	for i, u := range unmatched {
		rows[i] = []any{fr.RunID, fr.Field, u.RawValue, string(u.Issue), u.Mentions, u.Records}
	}
	if _, err := db.CopyFrom(ctx, tx, "unmatched_values", unmatchedColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy unmatched values")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit field run")
}

func (s *PostgresStore) ListFieldRuns(ctx context.Context, runID string) ([]model.FieldRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, field, status, entries, matched, unmatched, incomplete, notes, tiers, error, duration_ms, created_at
		 FROM field_runs WHERE run_id = $1 ORDER BY field`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list field runs")
	}
	defer rows.Close()

	var out []model.FieldRun
	for rows.Next() {
		var fr model.FieldRun
		var tiersJSON []byte
		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.Field, &fr.Status, &fr.Entries, &fr.Matched, &fr.Unmatched,
			&fr.Incomplete, &fr.Notes, &tiersJSON, &fr.Error, &fr.DurationMs, &fr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan field run")
		}
		if len(tiersJSON) > 0 {
			if err := json.Unmarshal(tiersJSON, &fr.Tiers); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal tiers")
			}
		}
		out = append(out, fr)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list field runs iterate")
}

func (s *PostgresStore) ListUnmatched(ctx context.Context, runID, field string, limit int) ([]model.UnmatchedValue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, field, raw_value, issue_type, mentions, records FROM unmatched_values
		 WHERE run_id = $1 AND field = $2
		 ORDER BY mentions DESC, raw_value, issue_type LIMIT $3`,
		runID, field, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unmatched")
	}
	defer rows.Close()

	var out []model.UnmatchedValue
	for rows.Next() {
		var u model.UnmatchedValue
		if err := rows.Scan(&u.RunID, &u.Field, &u.RawValue, &u.Issue, &u.Mentions, &u.Records); err != nil {
			return nil, eris.Wrap(err, "postgres: scan unmatched")
		}
		out = append(out, u)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list unmatched iterate")
}
