package export

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/ingest"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// File name suffixes of per-field artifacts.
const (
	SuffixLong       = "_long.csv"
	SuffixUnmatched  = "_unmatched.csv"
	SuffixFrequency  = "_frequency.csv"
	SuffixIncomplete = "_incomplete.csv"

	WorkbookName = "diagnostics.xlsx"
	MasterName   = "master_long.csv"
)

// LongPath returns the long-table path of field under dir.
func LongPath(dir, field string) string {
	return filepath.Join(dir, field+SuffixLong)
}

// WriteLongTable writes t to <dir>/<field>_long.csv and returns the path.
func WriteLongTable(dir string, t model.LongTable) (string, error) {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Cells(t.Schema)
	}
	path := LongPath(dir, t.Field)
	if err := WriteCSV(path, t.Schema.Header(), rows); err != nil {
		return "", eris.Wrapf(err, "export: long table %s", t.Field)
	}
	return path, nil
}

// ReadLongTable reads a long table written by WriteLongTable. The header must
// equal the schema's header exactly.
func ReadLongTable(ctx context.Context, path, field string, schema model.LongSchema) (model.LongTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.LongTable{}, eris.Wrapf(err, "export: open %s", path)
	}
	defer func() { _ = f.Close() }()

	rows, err := ingest.ReadCSV(ctx, f, ingest.CSVOptions{})
	if err != nil {
		return model.LongTable{}, eris.Wrapf(err, "export: read %s", path)
	}
	if len(rows) == 0 {
		return model.LongTable{}, eris.Errorf("export: %s is empty", path)
	}

	want := schema.Header()
	if !slices.Equal(rows[0], want) {
		return model.LongTable{}, eris.Errorf("export: %s header mismatch: got %s, want %s",
			path, strings.Join(rows[0], ","), strings.Join(want, ","))
	}

	t := model.LongTable{Field: field, Schema: schema, Rows: make([]model.LongRow, 0, len(rows)-1)}
	nRaw, nStd, nAttr := len(schema.RawColumns), len(schema.StandardColumns), len(schema.AttributeColumns)
	for i, cells := range rows[1:] {
		if len(cells) != len(want) {
			return model.LongTable{}, eris.Errorf("export: %s line %d has %d cells, want %d", path, i+2, len(cells), len(want))
		}
		pos, err := strconv.Atoi(cells[2])
		if err != nil {
			return model.LongTable{}, eris.Wrapf(err, "export: %s line %d position", path, i+2)
		}
		off := 3
		r := model.LongRow{
			RecordID: cells[0],
			Title:    cells[1],
			Position: pos,
		}
		r.Raw = slices.Clone(cells[off : off+nRaw])
		off += nRaw
		r.Standardized = slices.Clone(cells[off : off+nStd])
		off += nStd
		if nAttr > 0 {
			r.Attributes = slices.Clone(cells[off : off+nAttr])
		}
		off += nAttr
		r.Tier = model.MatchTier(cells[off])
		r.Issue = model.IssueType(cells[off+1])
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}
