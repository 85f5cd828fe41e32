package reference

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// StrictSources locates the inputs of a strict reference table.
type StrictSources struct {
	// Table is the base CSV or XLSX table.
	Table string
	// Curated is an optional YAML file of hand-maintained entries.
	Curated string
}

// GeoSources locates the inputs of the geography reference table. At least
// one of Boundaries or Table must exist.
type GeoSources struct {
	// Boundaries is an optional administrative-boundary shapefile.
	Boundaries string
	Fields     BoundaryFields
	// Table is an optional CSV of authoritative geography rows.
	Table string
	// Curated is an optional YAML file of continents, supranational bodies
	// and named regions.
	Curated string
}

// BuildStrict loads and merges a strict reference table.
func BuildStrict(ctx context.Context, field string, schema model.ReferenceSchema, src StrictSources) (*model.ReferenceTable, []model.Note, error) {
	base, err := LoadStrictCSV(ctx, src.Table, schema, model.SourceAuthoritative)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "reference: build %s", field)
	}

	var curated []model.ReferenceEntry
	if src.Curated != "" {
		curated, err = LoadStrictYAML(src.Curated)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "reference: build %s", field)
		}
	}

	entries, notes := MergeStrict(field, base, curated)
	return model.NewReferenceTable(field, schema, entries), notes, nil
}

// BuildGeo loads and merges the geography reference table.
func BuildGeo(ctx context.Context, src GeoSources) (*model.GeoTable, []model.Note, error) {
	var curated []model.GeoEntry
	if src.Curated != "" {
		var err error
		curated, err = LoadGeoYAML(src.Curated)
		if err != nil {
			return nil, nil, eris.Wrap(err, "reference: build geography")
		}
	}

	var authoritative []model.GeoEntry
	var found bool
	if exists(src.Boundaries) {
		fields := src.Fields
		if fields.Country == "" {
			fields = DefaultBoundaryFields()
		}
		rows, err := LoadBoundaries(src.Boundaries, fields, CountryContinents(curated))
		if err != nil {
			return nil, nil, eris.Wrap(err, "reference: build geography")
		}
		authoritative = append(authoritative, rows...)
		found = true
	}
	if exists(src.Table) {
		rows, err := LoadGeoCSV(ctx, src.Table, model.SourceAuthoritative)
		if err != nil {
			return nil, nil, eris.Wrap(err, "reference: build geography")
		}
		authoritative = append(authoritative, rows...)
		found = true
	}
	if !found {
		return nil, nil, eris.New("reference: geography needs a boundary shapefile or a geography table")
	}

	entries, notes := MergeGeo(authoritative, curated)
	return model.NewGeoTable(entries), notes, nil
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
