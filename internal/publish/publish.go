// Package publish loads exported long tables into PostgreSQL. Every publish
// replaces the target tables in full.
package publish

import (
	"context"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/combine"
	"github.com/offset-permanence/curate-cli/internal/db"
	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/resilience"
)

// MasterTable is the table name of the combined master table.
const MasterTable = "master_long"

// Publisher writes tables into one PostgreSQL schema.
type Publisher struct {
	pool   db.Pool
	schema string
	retry  resilience.RetryConfig
}

// New returns a Publisher for schema. Replacements run once unless
// WithRetry is set.
func New(pool db.Pool, schema string) *Publisher {
	return &Publisher{pool: pool, schema: schema, retry: resilience.NoRetry}
}

// WithRetry retries each table replacement on transient errors. A failed
// attempt rolls back in full, so retrying never leaves a partial table.
func (p *Publisher) WithRetry(cfg resilience.RetryConfig) *Publisher {
	p.retry = cfg
	return p
}

func (p *Publisher) replace(ctx context.Context, rc db.ReplaceConfig, rows [][]any) (int64, error) {
	retry := p.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.LogRetry("publish " + rc.Table)
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (int64, error) {
		return db.ReplaceTable(ctx, p.pool, rc, rows)
	})
}

// TableName returns the target table of a field.
func TableName(field string) string {
	return field + "_long"
}

// LongTable replaces <schema>.<field>_long with t.
func (p *Publisher) LongTable(ctx context.Context, t model.LongTable) (int64, error) {
	header := t.Schema.Header()
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		cells := r.Cells(t.Schema)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		// position is stored as an integer.
		row[2] = int32(r.Position)
		rows[i] = row
	}

	n, err := p.replace(ctx, db.ReplaceConfig{
		Schema:  p.schema,
		Table:   TableName(t.Field),
		Columns: header,
		Types:   map[string]string{model.ColPosition: "INTEGER"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "publish: %s", t.Field)
	}
	zap.L().Info("publish: table replaced",
		zap.String("schema", p.schema),
		zap.String("table", TableName(t.Field)),
		zap.Int64("rows", n),
	)
	return n, nil
}

// Master replaces <schema>.master_long with m. Every column is TEXT.
func (p *Publisher) Master(ctx context.Context, m *combine.Master) (int64, error) {
	rows := make([][]any, len(m.Rows))
	for i, r := range m.Rows {
		row := make([]any, len(r))
		for j, c := range r {
			row[j] = c
		}
		rows[i] = row
	}
	n, err := p.replace(ctx, db.ReplaceConfig{
		Schema:  p.schema,
		Table:   MasterTable,
		Columns: m.Header,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "publish: master")
	}
	zap.L().Info("publish: table replaced",
		zap.String("schema", p.schema),
		zap.String("table", MasterTable),
		zap.Int64("rows", n),
	)
	return n, nil
}

// All publishes every table and, when m is non-nil, the master table. It
// stops at the first failure; tables already replaced stay replaced.
func (p *Publisher) All(ctx context.Context, tables []model.LongTable, m *combine.Master) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables)+1)
	for _, t := range tables {
		n, err := p.LongTable(ctx, t)
		if err != nil {
			return counts, err
		}
		counts[TableName(t.Field)] = n
	}
	if m != nil {
		n, err := p.Master(ctx, m)
		if err != nil {
			return counts, err
		}
		counts[MasterTable] = n
	}
	return counts, nil
}

// Summary renders counts for CLI output, one "table=rows" item per table
// sorted by table name.
func Summary(counts map[string]int64) []string {
	out := make([]string, 0, len(counts))
	for t, n := range counts {
		out = append(out, t+"="+strconv.FormatInt(n, 10))
	}
	sort.Strings(out)
	return out
}
