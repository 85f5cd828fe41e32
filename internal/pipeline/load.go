package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/alias"
	"github.com/offset-permanence/curate-cli/internal/config"
	"github.com/offset-permanence/curate-cli/internal/diagnose"
	"github.com/offset-permanence/curate-cli/internal/match"
	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/reference"
)

// Reference file names relative to the reference directory.
const (
	geographyTable  = "geography.csv"
	curatedSuffix   = "_curated.yaml"
	referenceCSVExt = ".csv"
	aliasYAMLExt    = ".yaml"
)

// Field is a field spec bound to its loaded reference data.
type Field struct {
	Spec    model.FieldSpec
	Matcher match.Matcher
	// Incomplete lists reference entries missing required attributes.
	Incomplete []diagnose.IncompleteEntry
	// Notes collects alias, merge and hierarchy notes raised while loading.
	Notes []model.Note
	// Geo is set for the geography field.
	Geo *model.GeoTable
	// Strict is set for every other field.
	Strict *model.ReferenceTable
}

// StrictSources returns the reference files of a strict field.
func StrictSources(cfg config.ReferenceConfig, field string) reference.StrictSources {
	return reference.StrictSources{
		Table:   filepath.Join(cfg.Dir, field+referenceCSVExt),
		Curated: filepath.Join(cfg.Dir, field+curatedSuffix),
	}
}

// GeoSources returns the reference files of the geography field.
func GeoSources(cfg config.ReferenceConfig) reference.GeoSources {
	return reference.GeoSources{
		Boundaries: cfg.Boundaries,
		Fields: reference.BoundaryFields{
			Country:    cfg.BoundaryFields.Country,
			Region:     cfg.BoundaryFields.Region,
			RegionType: cfg.BoundaryFields.RegionType,
		},
		Table:   filepath.Join(cfg.Dir, geographyTable),
		Curated: filepath.Join(cfg.Dir, FieldGeography+curatedSuffix),
	}
}

// AliasPath returns the alias file for column. A CSV file takes precedence
// over a YAML file; when neither exists the CSV path is returned.
func AliasPath(dir, column string) string {
	csvPath := filepath.Join(dir, column+referenceCSVExt)
	if _, err := os.Stat(csvPath); err == nil {
		return csvPath
	}
	yamlPath := filepath.Join(dir, column+aliasYAMLExt)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	return csvPath
}

// LoadAliases loads the alias maps of a field's alias columns.
func LoadAliases(ctx context.Context, dir string, spec model.FieldSpec) (*alias.Resolver, []model.Note, error) {
	maps := make(map[string]alias.Map, len(spec.AliasColumns))
	var notes []model.Note
	for _, col := range spec.AliasColumns {
		m, n, err := alias.Load(ctx, AliasPath(dir, col), col)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "pipeline: load aliases for %s", col)
		}
		for i := range n {
			n[i].Field = spec.Name
		}
		maps[col] = m
		notes = append(notes, n...)
	}
	return alias.NewResolver(maps), notes, nil
}

// LoadField builds the matcher and reference diagnostics of one field.
func LoadField(ctx context.Context, cfg config.ReferenceConfig, spec model.FieldSpec) (*Field, error) {
	resolver, notes, err := LoadAliases(ctx, cfg.AliasDir, spec)
	if err != nil {
		return nil, err
	}

	f := &Field{Spec: spec, Notes: notes}
	switch spec.Kind {
	case model.MatchGeography:
		table, mergeNotes, err := reference.BuildGeo(ctx, GeoSources(cfg))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load geography reference")
		}
		f.Geo = table
		f.Matcher = match.NewGeography(table, resolver)
		f.Incomplete = diagnose.IncompleteGeo(table)
		f.Notes = append(f.Notes, mergeNotes...)
		f.Notes = append(f.Notes, diagnose.GeoHierarchyConflicts(table)...)
	case model.MatchStrict, "":
		src := StrictSources(cfg, spec.Name)
		if !fileExists(src.Table) {
			return nil, eris.Errorf("pipeline: reference table %s not found", src.Table)
		}
		table, mergeNotes, err := reference.BuildStrict(ctx, spec.Name, spec.Schema, src)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: load %s reference", spec.Name)
		}
		f.Strict = table
		f.Matcher = match.NewStrict(table, resolver)
		f.Incomplete = diagnose.IncompleteStrict(table)
		f.Notes = append(f.Notes, mergeNotes...)
		f.Notes = append(f.Notes, diagnose.StrictHierarchyConflicts(table)...)
	default:
		return nil, eris.Errorf("pipeline: field %s has unknown match kind %q", spec.Name, spec.Kind)
	}
	return f, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
