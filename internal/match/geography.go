package match

import (
	"github.com/offset-permanence/curate-cli/internal/alias"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// GeoInput is one alias-resolved geography tuple.
type GeoInput struct {
	Country    string
	Region     string
	RegionType string
	Continent  string
}

// Geography is the tiered geography matcher.
//
// Before tiers are evaluated, a null region type is filled from the first
// reference row with the same (country, region), and a country value that is
// not a country but a standalone continent or supranational entry is read as
// a continent with a null country. Tiers are then tried in order:
//
//   - full: country, region and type all set and the triple exists
//   - country: region and type null and the country is valid
//   - continent: country, region and type null and the continent is a
//     standalone entry
//
// Anything else is unmatched with the first applicable issue of
// bad_country, bad_region, bad_type, only_country, continent_only,
// completely_unknown. bad_type needs all three parts set and individually
// known, so an unknown or unimputable type falls through to only_country.
type Geography struct {
	table   *model.GeoTable
	aliases *alias.Resolver
}

// NewGeography returns a geography matcher over table.
func NewGeography(table *model.GeoTable, aliases *alias.Resolver) *Geography {
	if aliases == nil {
		aliases = alias.NewResolver(nil)
	}
	return &Geography{table: table, aliases: aliases}
}

// Match implements Matcher.
func (g *Geography) Match(e model.ExplodedEntry) model.MatchResult {
	resolved := g.aliases.ResolveAll(e.Columns, e.Values)
	in := GeoInput{
		Country:    valueOf(e.Columns, resolved, model.ColCountry),
		Region:     valueOf(e.Columns, resolved, model.ColRegion),
		RegionType: valueOf(e.Columns, resolved, model.ColRegionType),
		Continent:  valueOf(e.Columns, resolved, model.ColContinent),
	}

	out, tier, issue := g.Classify(in)
	setValue(e.Columns, resolved, model.ColRegionType, out.RegionType)

	res := model.MatchResult{
		Entry:    e,
		Resolved: resolved,
		Tier:     tier,
		Issue:    issue,
	}
	if tier != model.TierNone {
		res.Standardized = []string{out.Country, out.Region, out.RegionType, out.Continent}
	}
	return res
}

// Classify imputes, then evaluates the tiers and issue precedence for one
// tuple. The returned tuple carries the imputed type and the continent from
// the matched reference row.
func (g *Geography) Classify(in GeoInput) (GeoInput, model.MatchTier, model.IssueType) {
	if in.RegionType == "" && in.Country != "" && in.Region != "" {
		if rt, ok := g.table.ImputeType(in.Country, in.Region); ok {
			in.RegionType = rt
		}
	}

	if in.Country != "" && in.Region == "" && in.RegionType == "" {
		if _, isCountry := g.table.Country(in.Country); !isCountry && g.table.IsStandalone(in.Country) {
			if in.Continent == "" {
				in.Continent = in.Country
			}
			in.Country = ""
		}
	}

	c, r, t := in.Country, in.Region, in.RegionType
	countryContinent, countryKnown := g.table.Country(c)

	if c != "" && r != "" && t != "" {
		if e, ok := g.table.Triple(c, r, t); ok {
			in.Continent = e.Continent
			if in.Continent == "" {
				in.Continent = countryContinent
			}
			return in, model.TierFull, model.IssueNone
		}
	}

	if c != "" && r == "" && t == "" && countryKnown {
		in.Continent = countryContinent
		return in, model.TierCountry, model.IssueNone
	}

	if c == "" && r == "" && t == "" && in.Continent != "" && g.table.IsStandalone(in.Continent) {
		return in, model.TierContinent, model.IssueNone
	}

	switch {
	case c != "" && !countryKnown:
		return in, model.TierNone, model.IssueBadCountry
	case r != "" && !g.table.HasRegion(r):
		return in, model.TierNone, model.IssueBadRegion
	case c != "" && r != "" && t != "" && g.table.HasType(t):
		return in, model.TierNone, model.IssueBadType
	case c != "":
		return in, model.TierNone, model.IssueOnlyCountry
	case r == "" && in.Continent != "":
		return in, model.TierNone, model.IssueContinentOnly
	default:
		return in, model.TierNone, model.IssueCompletelyUnknown
	}
}

func valueOf(columns, values []string, column string) string {
	for i, c := range columns {
		if c == column && i < len(values) {
			return values[i]
		}
	}
	return ""
}

func setValue(columns, values []string, column, v string) {
	for i, c := range columns {
		if c == column && i < len(values) {
			values[i] = v
			return
		}
	}
}
