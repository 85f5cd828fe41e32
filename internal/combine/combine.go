// Package combine joins per-field long tables into the master long table.
package combine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/export"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// Separator joins a field name and a column name in master headers.
const Separator = "__"

// Master is the combined long table: one row per combination of matched
// entries across fields for each record.
type Master struct {
	Header []string
	Rows   [][]string
}

// Column returns the master header name of a field column.
func Column(field, column string) string {
	return field + Separator + column
}

// Combine performs a full outer join of tables on (record_id, title) and
// adds each record's scalar columns. Only matched long-table rows are
// carried; a record with no matched row in a field gets one blank block for
// that field. Records appear in source order.
//
// Every record must have a non-empty title that no other record shares, and
// every long-table row must belong to a known record.
func Combine(records []model.Record, scalar []string, tables []model.LongTable) (*Master, error) {
	if err := checkTitles(records); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	header := []string{model.ColRecordID, model.ColTitle}
	header = append(header, scalar...)

	// blocks[t][recordID] holds the value blocks of table t for one record.
	blocks := make([]map[string][][]string, len(tables))
	widths := make([]int, len(tables))
	for i, t := range tables {
		cols := append(append([]string{}, t.Schema.StandardColumns...), t.Schema.AttributeColumns...)
		for _, c := range cols {
			header = append(header, Column(t.Field, c))
		}
		widths[i] = len(cols)

		b, err := tableBlocks(t, byID)
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}

	m := &Master{Header: header}
	for _, rec := range records {
		prefix := []string{rec.ID, rec.Title}
		for _, c := range scalar {
			prefix = append(prefix, rec.Get(c))
		}

		combos := [][]string{prefix}
		for i := range tables {
			bs := blocks[i][rec.ID]
			if len(bs) == 0 {
				bs = [][]string{make([]string, widths[i])}
			}
			next := make([][]string, 0, len(combos)*len(bs))
			for _, c := range combos {
				for _, b := range bs {
					row := make([]string, 0, len(c)+len(b))
					row = append(row, c...)
					next = append(next, append(row, b...))
				}
			}
			combos = next
		}
		m.Rows = append(m.Rows, combos...)
	}
	return m, nil
}

func checkTitles(records []model.Record) error {
	seen := make(map[string]string, len(records))
	for _, r := range records {
		if r.Title == "" {
			return eris.Errorf("combine: record %s has no title", r.ID)
		}
		if other, ok := seen[r.Title]; ok {
			return eris.Errorf("combine: records %s and %s share title %q", other, r.ID, r.Title)
		}
		seen[r.Title] = r.ID
	}
	return nil
}

// tableBlocks groups the matched rows of t by record, ordered by position.
func tableBlocks(t model.LongTable, byID map[string]model.Record) (map[string][][]string, error) {
	rows := make([]model.LongRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec, ok := byID[r.RecordID]
		if !ok {
			return nil, eris.Errorf("combine: %s row references unknown record %s", t.Field, r.RecordID)
		}
		if r.Title != rec.Title {
			return nil, eris.Errorf("combine: %s row for record %s has title %q, want %q", t.Field, r.RecordID, r.Title, rec.Title)
		}
		if r.Tier == model.TierNone || r.Tier == "" {
			continue
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	out := make(map[string][][]string)
	for _, r := range rows {
		b := make([]string, 0, len(t.Schema.StandardColumns)+len(t.Schema.AttributeColumns))
		for i := range t.Schema.StandardColumns {
			b = append(b, cell(r.Standardized, i))
		}
		for i := range t.Schema.AttributeColumns {
			b = append(b, cell(r.Attributes, i))
		}
		out[r.RecordID] = append(out[r.RecordID], b)
	}
	return out, nil
}

func cell(ss []string, i int) string {
	if i < len(ss) {
		return ss[i]
	}
	return ""
}

// ReadTables reads the exported long tables of specs from dir. Fields
// without an exported table are skipped with a warning.
func ReadTables(ctx context.Context, dir string, specs []model.FieldSpec) ([]model.LongTable, error) {
	var out []model.LongTable
	for _, spec := range specs {
		path := export.LongPath(dir, spec.Name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("combine: long table not found, skipping field",
				zap.String("field", spec.Name),
				zap.String("path", path),
			)
			continue
		}
		t, err := export.ReadLongTable(ctx, path, spec.Name, spec.LongSchema())
		if err != nil {
			return nil, eris.Wrapf(err, "combine: read %s", spec.Name)
		}
		out = append(out, t)
	}
	return out, nil
}

// Write exports m as CSV to path.
func Write(path string, m *Master) error {
	return export.WriteCSV(path, m.Header, m.Rows)
}
