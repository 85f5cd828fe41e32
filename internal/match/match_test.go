package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offset-permanence/curate-cli/internal/alias"
	"github.com/offset-permanence/curate-cli/internal/model"
)

var geoCols = []string{model.ColCountry, model.ColRegion, model.ColRegionType}

func testGeoTable() *model.GeoTable {
	return model.NewGeoTable([]model.GeoEntry{
		{Country: "United States of America", Continent: "North America"},
		{Country: "United States of America", Region: "Oregon", RegionType: "State", Continent: "North America"},
		{Country: "Canada", Region: "Ontario", RegionType: "Province", Continent: "North America"},
		{Country: "Canada", Continent: "North America"},
		{Country: "France", Continent: "Europe"},
		{Country: "France", Region: "Bretagne", RegionType: "Region", Continent: "Europe"},
		{Continent: "Europe"},
		{Continent: "European Union"},
	})
}

func testAliases() *alias.Resolver {
	return alias.NewResolver(map[string]alias.Map{
		model.ColCountry: {"USA": "United States of America"},
		model.ColRegion:  {"Ont.": "Ontario"},
	})
}

func geoEntry(country, region, regionType string) model.ExplodedEntry {
	return model.ExplodedEntry{
		RecordID: "S1",
		Title:    "Study",
		Field:    "geography",
		Columns:  geoCols,
		Values:   []string{country, region, regionType},
	}
}

func TestGeography_Tiers(t *testing.T) {
	m := NewGeography(testGeoTable(), testAliases())

	tests := []struct {
		name     string
		in       model.ExplodedEntry
		tier     model.MatchTier
		issue    model.IssueType
		standard []string
	}{
		{
			name:     "full match",
			in:       geoEntry("Canada", "Ontario", "Province"),
			tier:     model.TierFull,
			standard: []string{"Canada", "Ontario", "Province", "North America"},
		},
		{
			name:     "full match via region alias",
			in:       geoEntry("Canada", "Ont.", "Province"),
			tier:     model.TierFull,
			standard: []string{"Canada", "Ontario", "Province", "North America"},
		},
		{
			name:     "type imputed from reference",
			in:       geoEntry("Canada", "Ontario", ""),
			tier:     model.TierFull,
			standard: []string{"Canada", "Ontario", "Province", "North America"},
		},
		{
			name:     "country only",
			in:       geoEntry("France", "", ""),
			tier:     model.TierCountry,
			standard: []string{"France", "", "", "Europe"},
		},
		{
			name:     "country only via alias",
			in:       geoEntry("USA", "", ""),
			tier:     model.TierCountry,
			standard: []string{"United States of America", "", "", "North America"},
		},
		{
			name:     "continent only",
			in:       geoEntry("Europe", "", ""),
			tier:     model.TierContinent,
			standard: []string{"", "", "", "Europe"},
		},
		{
			name:     "supranational",
			in:       geoEntry("European Union", "", ""),
			tier:     model.TierContinent,
			standard: []string{"", "", "", "European Union"},
		},
		{
			name:  "unknown everything prefers bad_country",
			in:    geoEntry("Atlantis", "Nowhere", "Province"),
			tier:  model.TierNone,
			issue: model.IssueBadCountry,
		},
		{
			name:  "bad region",
			in:    geoEntry("Canada", "Nowhere", "Province"),
			tier:  model.TierNone,
			issue: model.IssueBadRegion,
		},
		{
			name:  "known parts, wrong combination",
			in:    geoEntry("Canada", "Ontario", "State"),
			tier:  model.TierNone,
			issue: model.IssueBadType,
		},
		{
			name:  "region under another country",
			in:    geoEntry("France", "Oregon", ""),
			tier:  model.TierNone,
			issue: model.IssueOnlyCountry,
		},
		{
			name:  "region under another country with known type",
			in:    geoEntry("France", "Oregon", "State"),
			tier:  model.TierNone,
			issue: model.IssueBadType,
		},
		{
			name:  "unknown region type",
			in:    geoEntry("Canada", "Ontario", "Banana"),
			tier:  model.TierNone,
			issue: model.IssueOnlyCountry,
		},
		{
			name:  "country with type but no region",
			in:    geoEntry("Canada", "", "Province"),
			tier:  model.TierNone,
			issue: model.IssueOnlyCountry,
		},
		{
			name:  "region without country",
			in:    geoEntry("", "Ontario", "Province"),
			tier:  model.TierNone,
			issue: model.IssueCompletelyUnknown,
		},
		{
			name:  "type only",
			in:    geoEntry("", "", "Province"),
			tier:  model.TierNone,
			issue: model.IssueCompletelyUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Match(tt.in)
			assert.Equal(t, tt.tier, res.Tier)
			assert.Equal(t, tt.issue, res.Issue)
			if tt.standard != nil {
				assert.Equal(t, tt.standard, res.Standardized)
			} else {
				assert.Nil(t, res.Standardized)
			}
			assert.Equal(t, tt.in, res.Entry, "entry is carried through untouched")
		})
	}
}

func TestGeography_ImputationKeepsExplicitType(t *testing.T) {
	m := NewGeography(testGeoTable(), nil)

	res := m.Match(geoEntry("Canada", "Ontario", "State"))
	assert.Equal(t, model.IssueBadType, res.Issue)
	assert.Equal(t, "State", res.Resolved[2], "raw type wins over imputed type")

	res = m.Match(geoEntry("Canada", "Ontario", ""))
	assert.Equal(t, "Province", res.Resolved[2])
}

func TestGeography_ContinentColumn(t *testing.T) {
	m := NewGeography(testGeoTable(), nil)

	e := model.ExplodedEntry{
		Columns: []string{model.ColCountry, model.ColRegion, model.ColRegionType, model.ColContinent},
		Values:  []string{"", "", "", "Atlantic Ocean"},
	}
	res := m.Match(e)
	assert.Equal(t, model.TierNone, res.Tier)
	assert.Equal(t, model.IssueContinentOnly, res.Issue)

	e.Values[3] = "Europe"
	assert.Equal(t, model.TierContinent, m.Match(e).Tier)
}

func TestGeography_CountryShadowsStandalone(t *testing.T) {
	tbl := model.NewGeoTable([]model.GeoEntry{
		{Country: "Georgia", Continent: "Asia"},
		{Continent: "Georgia"},
	})
	out, tier, _ := NewGeography(tbl, nil).Classify(GeoInput{Country: "Georgia"})
	assert.Equal(t, model.TierCountry, tier)
	assert.Equal(t, "Georgia", out.Country)
	assert.Equal(t, "Asia", out.Continent)
}

func TestStrict(t *testing.T) {
	table := model.NewReferenceTable("policy",
		model.ReferenceSchema{Attributes: []string{"policy_type", "status"}},
		[]model.ReferenceEntry{
			{OriginalName: "Clean Water Act", StandardizedName: "Clean Water Act (1972)",
				Attributes: map[string]string{"policy_type": "statute", "status": "active"}},
		},
	)
	aliases := alias.NewResolver(map[string]alias.Map{
		"policy_legal_instrument_name": {"CWA": "Clean Water Act"},
	})
	m := NewStrict(table, aliases)

	e := model.ExplodedEntry{
		RecordID: "S1",
		Columns:  []string{"policy_legal_instrument_name", "year_of_policy_adoption"},
		Values:   []string{"CWA", "1972"},
	}
	res := m.Match(e)
	require.True(t, res.Matched())
	assert.Equal(t, model.TierFull, res.Tier)
	assert.Equal(t, []string{"Clean Water Act (1972)"}, res.Standardized)
	assert.Equal(t, []string{"statute", "active"}, res.Attributes)
	assert.Equal(t, []string{"Clean Water Act", "1972"}, res.Resolved)

	e.Values = []string{"Invented Act (2099)", ""}
	res = m.Match(e)
	assert.False(t, res.Matched())
	assert.Equal(t, model.IssueUnknownValue, res.Issue)

	e.Values = []string{"", "1999"}
	res = m.Match(e)
	assert.False(t, res.Matched())
	assert.Equal(t, model.IssueUnknownValue, res.Issue)

	e.Values = []string{"clean water act", ""}
	assert.False(t, m.Match(e).Matched(), "strict matching is case-sensitive")
}

func TestAll_IsTotal(t *testing.T) {
	m := NewGeography(testGeoTable(), testAliases())
	entries := []model.ExplodedEntry{
		geoEntry("Canada", "Ontario", "Province"),
		geoEntry("Atlantis", "", ""),
		geoEntry("", "", ""),
		geoEntry("France", "", ""),
	}

	results := All(m, entries)
	require.Len(t, results, len(entries))
	for i, r := range results {
		assert.Equal(t, entries[i], r.Entry)
		if r.Matched() {
			assert.Equal(t, model.IssueNone, r.Issue)
		} else {
			assert.NotEqual(t, model.IssueNone, r.Issue)
		}
	}
}
