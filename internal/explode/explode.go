// Package explode splits semicolon-delimited multi-value fields into one
// entry per atomic value.
package explode

import (
	"strconv"
	"strings"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// Separator is the multi-value delimiter used by the source spreadsheet.
// There is no escape mechanism; values never contain a literal semicolon.
const Separator = ";"

// Tokens splits a raw value on Separator and trims each token. Blank tokens
// are kept as "" so positions line up across jointly exploded columns.
func Tokens(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, Separator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	// A trailing separator ("a; b;") does not open a new position.
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Explode returns one entry per non-empty token of column in rec. Positions
// count kept tokens from zero. An empty field yields no entries.
func Explode(rec model.Record, field, column string) []model.ExplodedEntry {
	var out []model.ExplodedEntry
	for _, tok := range Tokens(rec.Get(column)) {
		if tok == "" {
			continue
		}
		out = append(out, model.ExplodedEntry{
			RecordID: rec.ID,
			Title:    rec.Title,
			Field:    field,
			Position: len(out),
			Columns:  []string{column},
			Values:   []string{tok},
		})
	}
	return out
}

// ExplodeJoint explodes several columns of rec in lockstep: the i-th token
// of every column forms the i-th entry. When token counts differ the short
// columns are padded with nulls and a token_count_mismatch note is returned.
// Positions where every column is blank are dropped.
func ExplodeJoint(rec model.Record, field string, columns []string) ([]model.ExplodedEntry, []model.Note) {
	if len(columns) == 1 {
		return Explode(rec, field, columns[0]), nil
	}

	tokens := make([][]string, len(columns))
	longest := 0
	for i, col := range columns {
		tokens[i] = Tokens(rec.Get(col))
		if len(tokens[i]) > longest {
			longest = len(tokens[i])
		}
	}

	var notes []model.Note
	if mismatched(tokens) {
		counts := make([]string, len(columns))
		for i, col := range columns {
			counts[i] = col + "=" + strconv.Itoa(len(tokens[i]))
		}
		notes = append(notes, model.Note{
			Kind:     model.NoteTokenCountMismatch,
			Field:    field,
			RecordID: rec.ID,
			Detail:   "token counts differ (" + strings.Join(counts, ", ") + "); padded with nulls",
		})
	}

	var out []model.ExplodedEntry
	for pos := 0; pos < longest; pos++ {
		values := make([]string, len(columns))
		empty := true
		for i := range columns {
			if pos < len(tokens[i]) {
				values[i] = tokens[i][pos]
			}
			if values[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out = append(out, model.ExplodedEntry{
			RecordID: rec.ID,
			Title:    rec.Title,
			Field:    field,
			Position: len(out),
			Columns:  columns,
			Values:   values,
		})
	}
	return out, notes
}

// mismatched reports whether any two non-empty columns disagree on token
// count. A column that is entirely empty is an omitted level of detail
// (e.g. country given without regions), not a mismatch.
func mismatched(tokens [][]string) bool {
	n := -1
	for _, t := range tokens {
		if len(t) == 0 {
			continue
		}
		if n == -1 {
			n = len(t)
			continue
		}
		if len(t) != n {
			return true
		}
	}
	return false
}

// Records explodes every record for one field spec and concatenates the
// entries in record order.
func Records(recs []model.Record, spec model.FieldSpec) ([]model.ExplodedEntry, []model.Note) {
	var (
		entries []model.ExplodedEntry
		notes   []model.Note
	)
	for _, rec := range recs {
		e, n := ExplodeJoint(rec, spec.Name, spec.Columns)
		entries = append(entries, e...)
		notes = append(notes, n...)
	}
	return entries, notes
}

// Join re-joins single-column entries with "; ".
func Join(entries []model.ExplodedEntry) string {
	vals := make([]string, len(entries))
	for i, e := range entries {
		vals[i] = e.Raw()
	}
	return strings.Join(vals, Separator+" ")
}
