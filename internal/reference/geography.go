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

// LoadGeoCSV reads a geography table with columns country,
// subnational_region, subnational_region_type, continent.
func LoadGeoCSV(ctx context.Context, path string, source model.EntrySource) ([]model.GeoEntry, error) {
	t, err := ingest.ReadTable(ctx, path, "")
	if err != nil {
		return nil, eris.Wrap(err, "reference: read geography table")
	}
	if !t.Has(model.ColCountry) && !t.Has(model.ColContinent) {
		return nil, eris.Errorf("reference: %s must have a %q or %q column", path, model.ColCountry, model.ColContinent)
	}

	entries := make([]model.GeoEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		e := model.GeoEntry{
			Country:    t.Cell(row, model.ColCountry),
			Region:     t.Cell(row, model.ColRegion),
			RegionType: t.Cell(row, model.ColRegionType),
			Continent:  t.Cell(row, model.ColContinent),
			Source:     source,
		}
		if e == (model.GeoEntry{Source: source}) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadGeoYAML reads hand-curated geography entries (supranational bodies,
// continents, named regions). A missing file yields no entries.
func LoadGeoYAML(path string) ([]model.GeoEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}

	var raw []model.GeoEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "reference: parse %s", path)
	}

	entries := make([]model.GeoEntry, 0, len(raw))
	for _, e := range raw {
		e = model.GeoEntry{
			Country:    ingest.CleanCell(e.Country),
			Region:     ingest.CleanCell(e.Region),
			RegionType: ingest.CleanCell(e.RegionType),
			Continent:  ingest.CleanCell(e.Continent),
			Source:     model.SourceCurated,
		}
		if e == (model.GeoEntry{Source: model.SourceCurated}) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MergeGeo combines authoritative and curated geography rows, de-duplicated
// on the (country, region, type) key. Within one source the first row wins;
// a curated row replaces the authoritative row with the same key in place.
// Authoritative rows without a continent inherit the continent of a curated
// row for the same country.
func MergeGeo(authoritative, curated []model.GeoEntry) ([]model.GeoEntry, []model.Note) {
	var notes []model.Note
	out := make([]model.GeoEntry, 0, len(authoritative)+len(curated))
	idx := make(map[[3]string]int, len(authoritative)+len(curated))

	add := func(e model.GeoEntry, curatedPass bool, seen map[[3]string]bool) {
		k := e.Key()
		if e.Standalone() {
			k = [3]string{"", "", e.Continent}
		}
		if seen[k] {
			notes = append(notes, duplicateNote("geography", geoKeyString(e), "repeated in "+string(e.Source)+" rows; first kept"))
			return
		}
		seen[k] = true
		if i, ok := idx[k]; ok {
			if curatedPass && out[i] != e {
				if out[i].Continent != e.Continent {
					notes = append(notes, duplicateNote("geography", geoKeyString(e), "curated row overrides authoritative row"))
				}
				out[i] = e
			}
			return
		}
		idx[k] = len(out)
		out = append(out, e)
	}

	seenAuth := make(map[[3]string]bool, len(authoritative))
	for _, e := range authoritative {
		add(e, false, seenAuth)
	}
	seenCurated := make(map[[3]string]bool, len(curated))
	for _, e := range curated {
		add(e, true, seenCurated)
	}

	continents := CountryContinents(curated)
	for i := range out {
		if out[i].Continent == "" && out[i].Country != "" {
			out[i].Continent = continents[out[i].Country]
		}
	}
	return out, notes
}

// CountryContinents returns the first continent given for each country.
func CountryContinents(entries []model.GeoEntry) map[string]string {
	m := make(map[string]string)
	for _, e := range entries {
		if e.Country == "" || e.Continent == "" {
			continue
		}
		if _, ok := m[e.Country]; !ok {
			m[e.Country] = e.Continent
		}
	}
	return m
}

func geoKeyString(e model.GeoEntry) string {
	if e.Standalone() {
		return e.Continent
	}
	return e.Country + " | " + e.Region + " | " + e.RegionType
}

// WriteGeo persists geography rows to CSV, replacing any existing file.
func WriteGeo(path string, entries []model.GeoEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Country, e.Region, e.RegionType, e.Continent})
	}
	return eris.Wrap(export.WriteCSV(path, model.GeoColumns, rows), "reference: write geography table")
}
