package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// Table is a header-indexed in-memory table.
type Table struct {
	Header []string
	Rows   [][]string

	idx map[string]int
}

// NewTable indexes header names. Header names are matched exactly after cleanup.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, idx: make(map[string]int, len(header))}
	for i, h := range header {
		h = CleanCell(h)
		t.Header[i] = h
		if _, ok := t.idx[h]; !ok {
			t.idx[h] = i
		}
	}
	return t
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.idx[column]
	return ok
}

// Cell returns the value of column in row, or "" when absent.
func (t *Table) Cell(row []string, column string) string {
	i, ok := t.idx[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadTable reads a .csv or .xlsx file into a Table. The first row is the header.
func ReadTable(ctx context.Context, path string, sheet string) (*Table, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		var err error
		rows, err = ReadXLSX(path, XLSXOptions{SheetName: sheet})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", path)
		}
	case ".csv", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		opts := CSVOptions{TrimSpace: true, LazyQuotes: true}
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts.Delimiter = '\t'
		}
		rows, err = ReadCSV(ctx, f, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", path)
		}
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}

	if len(rows) == 0 {
		return nil, eris.Errorf("ingest: %s has no header row", path)
	}
	return NewTable(rows[0], rows[1:]), nil
}

// SourceOptions maps the source spreadsheet onto Records.
type SourceOptions struct {
	Sheet       string
	IDColumn    string
	TitleColumn string
}

// LoadRecords reads the coded-study table. Records without an identifier or
// title are skipped; a repeated identifier keeps the first record. Both cases
// are reported as notes.
func LoadRecords(ctx context.Context, path string, opts SourceOptions) ([]model.Record, []model.Note, error) {
	t, err := ReadTable(ctx, path, opts.Sheet)
	if err != nil {
		return nil, nil, err
	}
	return BuildRecords(t, opts)
}

// BuildRecords converts table rows to Records.
func BuildRecords(t *Table, opts SourceOptions) ([]model.Record, []model.Note, error) {
	for _, col := range []string{opts.IDColumn, opts.TitleColumn} {
		if !t.Has(col) {
			return nil, nil, eris.Errorf("ingest: source is missing column %q", col)
		}
	}

	var (
		records []model.Record
		notes   []model.Note
		seen    = make(map[string]bool, len(t.Rows))
	)
	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		rec := model.Record{
			ID:     t.Cell(row, opts.IDColumn),
			Title:  t.Cell(row, opts.TitleColumn),
			Fields: make(map[string]string, len(t.Header)),
		}
		for j, h := range t.Header {
			if h == "" || j >= len(row) {
				continue
			}
			rec.Fields[h] = row[j]
		}

		if !rec.HasJoinKey() {
			notes = append(notes, model.Note{
				Kind:     model.NoteMissingJoinKey,
				RecordID: rec.ID,
				Detail:   "source row " + strconv.Itoa(i+2) + " has no identifier or title",
			})
			continue
		}
		if seen[rec.ID] {
			notes = append(notes, model.Note{
				Kind:     model.NoteDuplicateRecord,
				RecordID: rec.ID,
				Detail:   "source row " + strconv.Itoa(i+2) + " repeats an identifier; first occurrence kept",
			})
			continue
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}
	return records, notes, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
