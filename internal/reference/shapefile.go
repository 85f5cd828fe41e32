package reference

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/ingest"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// BoundaryFields names the attribute columns of an administrative-boundary
// shapefile. The defaults follow GADM level-1 files.
type BoundaryFields struct {
	Country    string
	Region     string
	RegionType string
}

// DefaultBoundaryFields returns the GADM level-1 attribute names.
func DefaultBoundaryFields() BoundaryFields {
	return BoundaryFields{Country: "NAME_0", Region: "NAME_1", RegionType: "ENGTYPE_1"}
}

// LoadBoundaries reads an administrative-boundary shapefile and returns one
// authoritative country row per distinct country followed by one row per
// (country, region, type). Geometry is ignored. Continents come from
// continents, keyed by country name.
func LoadBoundaries(shpPath string, fields BoundaryFields, continents map[string]string) ([]model.GeoEntry, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	countryIdx, ok := fieldIdx[strings.ToLower(fields.Country)]
	if !ok {
		return nil, eris.Errorf("reference: shapefile %s has no %s attribute", shpPath, fields.Country)
	}
	regionIdx, hasRegion := fieldIdx[strings.ToLower(fields.Region)]
	typeIdx, hasType := fieldIdx[strings.ToLower(fields.RegionType)]

	attr := func(idx int) string {
		return ingest.CleanCell(reader.Attribute(idx))
	}

	var countries, regions []model.GeoEntry
	seenCountry := make(map[string]bool)
	seenRegion := make(map[[3]string]bool)
	var skipped int

	for reader.Next() {
		country := attr(countryIdx)
		if country == "" {
			skipped++
			continue
		}
		if !seenCountry[country] {
			seenCountry[country] = true
			countries = append(countries, model.GeoEntry{
				Country:   country,
				Continent: continents[country],
				Source:    model.SourceAuthoritative,
			})
		}
		if !hasRegion {
			continue
		}

		e := model.GeoEntry{
			Country:   country,
			Region:    attr(regionIdx),
			Continent: continents[country],
			Source:    model.SourceAuthoritative,
		}
		if e.Region == "" {
			continue
		}
		if hasType {
			e.RegionType = attr(typeIdx)
		}
		if seenRegion[e.Key()] {
			continue
		}
		seenRegion[e.Key()] = true
		regions = append(regions, e)
	}

	if skipped > 0 {
		zap.L().Debug("reference: skipped boundary records without a country",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return append(countries, regions...), nil
}
