package alias

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/offset-permanence/curate-cli/internal/export"
	"github.com/offset-permanence/curate-cli/internal/ingest"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// Alias table columns.
const (
	ColRaw      = "raw"
	ColStandard = "standard"
)

// Load reads an alias table from a .csv (raw,standard) or .yaml (raw: standard)
// file. A missing file is an empty map. Duplicate raw keys keep the first
// entry and are reported as notes. The returned map is collapsed.
func Load(ctx context.Context, path, column string) (Map, []model.Note, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Map{}, nil, nil
	}

	var (
		m     Map
		notes []model.Note
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, notes, err = loadYAML(path, column)
	default:
		m, notes, err = loadCSV(ctx, path, column)
	}
	if err != nil {
		return nil, nil, err
	}

	collapsed, chainNotes, err := m.Collapse(column)
	if err != nil {
		return nil, nil, err
	}
	return collapsed, append(notes, chainNotes...), nil
}

func loadCSV(ctx context.Context, path, column string) (Map, []model.Note, error) {
	t, err := ingest.ReadTable(ctx, path, "")
	if err != nil {
		return nil, nil, eris.Wrap(err, "alias: read table")
	}
	if !t.Has(ColRaw) || !t.Has(ColStandard) {
		return nil, nil, eris.Errorf("alias: %s must have %q and %q columns", path, ColRaw, ColStandard)
	}

	m := make(Map, len(t.Rows))
	var notes []model.Note
	for _, row := range t.Rows {
		notes = m.add(column, t.Cell(row, ColRaw), t.Cell(row, ColStandard), notes)
	}
	return m, notes, nil
}

// loadYAML walks the document node by node so that a repeated key keeps its
// first value instead of failing the whole file.
func loadYAML(path, column string) (Map, []model.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "alias: read %s", path)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, eris.Wrapf(err, "alias: parse %s", path)
	}
	if len(doc.Content) == 0 {
		return Map{}, nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, eris.Errorf("alias: %s must be a mapping of raw: standard", path)
	}

	m := make(Map, len(root.Content)/2)
	var notes []model.Note
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, nil, eris.Errorf("alias: %s line %d: raw and standard must be scalars", path, k.Line)
		}
		notes = m.add(column, ingest.CleanCell(k.Value), ingest.CleanCell(v.Value), notes)
	}
	return m, notes, nil
}

// add records raw → std unless either side is empty. A repeated raw key
// keeps its first target; a conflicting repeat is noted.
func (m Map) add(column, raw, std string, notes []model.Note) []model.Note {
	if raw == "" || std == "" {
		return notes
	}
	if prev, ok := m[raw]; ok {
		if prev != std {
			notes = append(notes, model.Note{
				Kind:   model.NoteDuplicateAlias,
				Field:  column,
				Detail: "alias " + raw + " maps to both " + prev + " and " + std + "; kept " + prev,
			})
		}
		return notes
	}
	m[raw] = std
	return notes
}

// Write persists m to a two-column CSV, replacing any existing file.
func Write(path string, m Map) error {
	rows := make([][]string, 0, len(m))
	for _, k := range m.Keys() {
		rows = append(rows, []string{k, m[k]})
	}
	return eris.Wrap(export.WriteCSV(path, []string{ColRaw, ColStandard}, rows), "alias: write")
}
