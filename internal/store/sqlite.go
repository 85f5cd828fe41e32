package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/offset-permanence/curate-cli/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	fields     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS field_runs (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	field       TEXT NOT NULL,
	status      TEXT NOT NULL,
	entries     INTEGER NOT NULL DEFAULT 0,
	matched     INTEGER NOT NULL DEFAULT 0,
	unmatched   INTEGER NOT NULL DEFAULT 0,
	incomplete  INTEGER NOT NULL DEFAULT 0,
	notes       INTEGER NOT NULL DEFAULT 0,
	tiers       TEXT,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
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
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_field_runs_run_id ON field_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_unmatched_run_field ON unmatched_values(run_id, field);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source string, fields []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal fields")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, fields, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source, string(fieldsJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, fields, status, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, fields, status, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RecordField(ctx context.Context, fr *model.FieldRun, unmatched []model.UnmatchedValue) error {
	if fr.ID == "" {
		fr.ID = uuid.New().String()
	}
	if fr.CreatedAt.IsZero() {
		fr.CreatedAt = time.Now().UTC()
	}
	tiersJSON, err := json.Marshal(fr.Tiers)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tiers")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO field_runs (id, run_id, field, status, entries, matched, unmatched, incomplete, notes, tiers, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fr.ID, fr.RunID, fr.Field, string(fr.Status), fr.Entries, fr.Matched, fr.Unmatched,
		fr.Incomplete, fr.Notes, string(tiersJSON), fr.Error, fr.DurationMs, fr.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert field run %s/%s", fr.RunID, fr.Field)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO unmatched_values (run_id, field, raw_value, issue_type, mentions, records) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare unmatched insert")
	}
	defer stmt.Close()
	for _, u := range unmatched {
		if _, err := stmt.ExecContext(ctx, fr.RunID, fr.Field, u.RawValue, string(u.Issue), u.Mentions, u.Records); err != nil {
			return eris.Wrap(err, "sqlite: insert unmatched value")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit field run")
}

func (s *SQLiteStore) ListFieldRuns(ctx context.Context, runID string) ([]model.FieldRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, field, status, entries, matched, unmatched, incomplete, notes, tiers, error, duration_ms, created_at
		 FROM field_runs WHERE run_id = ? ORDER BY field`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list field runs")
	}
	defer rows.Close()

	var out []model.FieldRun
	for rows.Next() {
		var fr model.FieldRun
		var tiersJSON sql.NullString
		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.Field, &fr.Status, &fr.Entries, &fr.Matched, &fr.Unmatched,
			&fr.Incomplete, &fr.Notes, &tiersJSON, &fr.Error, &fr.DurationMs, &fr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan field run")
		}
		if tiersJSON.Valid && tiersJSON.String != "" {
			if err := json.Unmarshal([]byte(tiersJSON.String), &fr.Tiers); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal tiers")
			}
		}
		out = append(out, fr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list field runs iterate")
}

func (s *SQLiteStore) ListUnmatched(ctx context.Context, runID, field string, limit int) ([]model.UnmatchedValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, field, raw_value, issue_type, mentions, records FROM unmatched_values
		 WHERE run_id = ? AND field = ?
		 ORDER BY mentions DESC, raw_value, issue_type LIMIT ?`,
		runID, field, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unmatched")
	}
	defer rows.Close()

	var out []model.UnmatchedValue
	for rows.Next() {
		var u model.UnmatchedValue
		if err := rows.Scan(&u.RunID, &u.Field, &u.RawValue, &u.Issue, &u.Mentions, &u.Records); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan unmatched")
		}
		out = append(out, u)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list unmatched iterate")
}

// helpers

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var fieldsJSON string

	err := row.Scan(&r.ID, &r.Source, &fieldsJSON, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &r.Fields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal fields")
	}
	return &r, nil
}
