// Package reference loads, merges and writes the reference tables that raw
// values are standardized against.
package reference

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/offset-permanence/curate-cli/internal/export"
	"github.com/offset-permanence/curate-cli/internal/ingest"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// Strict table columns.
const (
	ColOriginalName     = "original_name"
	ColStandardizedName = model.ColStandardizedName
)

// LoadStrictCSV reads a strict reference table with columns
// original_name, standardized_name and the schema's attributes. Attribute
// columns absent from the file load as empty values.
func LoadStrictCSV(ctx context.Context, path string, schema model.ReferenceSchema, source model.EntrySource) ([]model.ReferenceEntry, error) {
	t, err := ingest.ReadTable(ctx, path, "")
	if err != nil {
		return nil, eris.Wrap(err, "reference: read strict table")
	}
	if !t.Has(ColOriginalName) || !t.Has(ColStandardizedName) {
		return nil, eris.Errorf("reference: %s must have %q and %q columns", path, ColOriginalName, ColStandardizedName)
	}

	entries := make([]model.ReferenceEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		orig := t.Cell(row, ColOriginalName)
		if orig == "" {
			continue
		}
		e := model.ReferenceEntry{
			OriginalName:     orig,
			StandardizedName: t.Cell(row, ColStandardizedName),
			Attributes:       make(map[string]string, len(schema.Attributes)),
			Source:           source,
		}
		for _, attr := range schema.Attributes {
			e.Attributes[attr] = t.Cell(row, attr)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadStrictYAML reads hand-curated strict entries, cleaned the same way as
// table cells. A missing file yields no entries.
func LoadStrictYAML(path string) ([]model.ReferenceEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}

	var raw []model.ReferenceEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "reference: parse %s", path)
	}

	entries := make([]model.ReferenceEntry, 0, len(raw))
	for _, e := range raw {
		e.OriginalName = ingest.CleanCell(e.OriginalName)
		if e.OriginalName == "" {
			continue
		}
		e.StandardizedName = ingest.CleanCell(e.StandardizedName)
		attrs := make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			attrs[ingest.CleanCell(k)] = ingest.CleanCell(v)
		}
		e.Attributes = attrs
		e.Source = model.SourceCurated
		entries = append(entries, e)
	}
	return entries, nil
}

// MergeStrict combines base and curated entries keyed by original name.
// Within one source the first entry for a key wins; across sources the
// curated entry replaces the base entry in place. Curated entries with new
// keys are appended. Every collision with differing content is reported.
func MergeStrict(field string, base, curated []model.ReferenceEntry) ([]model.ReferenceEntry, []model.Note) {
	var notes []model.Note
	out := make([]model.ReferenceEntry, 0, len(base)+len(curated))
	idx := make(map[string]int, len(base)+len(curated))

	for _, e := range base {
		if i, ok := idx[e.OriginalName]; ok {
			if !sameStrict(out[i], e) {
				notes = append(notes, duplicateNote(field, e.OriginalName, "repeated in base table; first kept"))
			}
			continue
		}
		idx[e.OriginalName] = len(out)
		out = append(out, e)
	}

	seenCurated := make(map[string]bool, len(curated))
	for _, e := range curated {
		if seenCurated[e.OriginalName] {
			notes = append(notes, duplicateNote(field, e.OriginalName, "repeated in curated entries; first kept"))
			continue
		}
		seenCurated[e.OriginalName] = true
		if i, ok := idx[e.OriginalName]; ok {
			if !sameStrict(out[i], e) {
				notes = append(notes, duplicateNote(field, e.OriginalName, "curated entry overrides base entry"))
			}
			out[i] = e
			continue
		}
		idx[e.OriginalName] = len(out)
		out = append(out, e)
	}
	return out, notes
}

func sameStrict(a, b model.ReferenceEntry) bool {
	if a.OriginalName != b.OriginalName || a.StandardizedName != b.StandardizedName {
		return false
	}
	keys := make(map[string]bool)
	for k := range a.Attributes {
		keys[k] = true
	}
	for k := range b.Attributes {
		keys[k] = true
	}
	for k := range keys {
		if a.Attr(k) != b.Attr(k) {
			return false
		}
	}
	return true
}

func duplicateNote(field, key, detail string) model.Note {
	return model.Note{Kind: model.NoteDuplicateKey, Field: field, Detail: key + ": " + detail}
}

// WriteStrict persists a strict table to CSV, replacing any existing file.
func WriteStrict(path string, t *model.ReferenceTable) error {
	header := append([]string{ColOriginalName, ColStandardizedName}, t.Schema.Attributes...)
	rows := make([][]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		row := []string{e.OriginalName, e.StandardizedName}
		for _, attr := range t.Schema.Attributes {
			row = append(row, e.Attr(attr))
		}
		rows = append(rows, row)
	}
	return eris.Wrap(export.WriteCSV(path, header, rows), "reference: write strict table")
}
