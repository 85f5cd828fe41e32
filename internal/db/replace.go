package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ReplaceConfig defines a full-table replacement.
type ReplaceConfig struct {
	Schema  string            // target schema; created when missing
	Table   string            // target table inside Schema
	Columns []string          // column order of rows
	Types   map[string]string // column SQL types; unlisted columns are TEXT
}

// ReplaceTable drops and recreates Schema.Table and COPYs rows into it inside
// one transaction, so readers see either the old table or the new one.
// 1. CREATE SCHEMA IF NOT EXISTS
// 2. DROP TABLE IF EXISTS
// 3. CREATE TABLE with the configured columns
// 4. COPY rows
func ReplaceTable(ctx context.Context, pool Pool, cfg ReplaceConfig, rows [][]any) (int64, error) {
	if cfg.Schema == "" || cfg.Table == "" {
		return 0, eris.New("db: replace: schema and table are required")
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	target := sanitizeTable(cfg.Schema + "." + cfg.Table)
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{cfg.Schema}.Sanitize(),
		"DROP TABLE IF EXISTS " + target,
		fmt.Sprintf("CREATE TABLE %s (%s)", target, columnDefs(cfg.Columns, cfg.Types)),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, eris.Wrapf(err, "db: replace: %s", stmt)
		}
	}

	n, err := CopyFromSchema(ctx, tx, cfg.Schema, cfg.Table, cfg.Columns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

func columnDefs(cols []string, types map[string]string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := types[c]
		if typ == "" {
			typ = "TEXT"
		}
		defs[i] = pgx.Identifier{c}.Sanitize() + " " + typ
	}
	return strings.Join(defs, ", ")
}

// sanitizeTable handles schema-qualified table names like "curation.policy_long".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}
