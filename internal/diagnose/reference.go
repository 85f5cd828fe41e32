package diagnose

import (
	"sort"
	"strings"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// IncompleteEntry is a reference entry that exists but lacks required
// classification attributes.
type IncompleteEntry struct {
	Key              string   `json:"key"`
	StandardizedName string   `json:"standardized_name"`
	Missing          []string `json:"missing_attributes"`
}

// IncompleteStrict checks every entry of a strict table, whether or not any
// record refers to it. A missing standardized name makes the entry unmatchable
// and is always reported.
func IncompleteStrict(t *model.ReferenceTable) []IncompleteEntry {
	var out []IncompleteEntry
	for _, e := range t.Entries {
		var missing []string
		if strings.TrimSpace(e.StandardizedName) == "" {
			missing = append(missing, model.ColStandardizedName)
		}
		for _, attr := range t.Schema.Required {
			if strings.TrimSpace(e.Attr(attr)) == "" {
				missing = append(missing, attr)
			}
		}
		if len(missing) > 0 {
			out = append(out, IncompleteEntry{
				Key:              e.OriginalName,
				StandardizedName: e.StandardizedName,
				Missing:          missing,
			})
		}
	}
	return out
}

// IncompleteGeo reports country rows without a continent and region rows
// without a region type.
func IncompleteGeo(t *model.GeoTable) []IncompleteEntry {
	var out []IncompleteEntry
	for _, e := range t.Entries {
		if e.Standalone() {
			continue
		}
		var missing []string
		if e.Country == "" {
			missing = append(missing, model.ColCountry)
		}
		if e.Country != "" && e.Continent == "" {
			missing = append(missing, model.ColContinent)
		}
		if e.Region != "" && e.RegionType == "" {
			missing = append(missing, model.ColRegionType)
		}
		if len(missing) > 0 {
			out = append(out, IncompleteEntry{
				Key:     strings.Join([]string{e.Country, e.Region, e.RegionType}, " | "),
				Missing: missing,
			})
		}
	}
	return out
}

// GeoHierarchyConflicts reports regions that appear under more than one
// country. A region must map to exactly one country.
func GeoHierarchyConflicts(t *model.GeoTable) []model.Note {
	regions := t.Regions()
	sort.Strings(regions)

	var notes []model.Note
	for _, r := range regions {
		countries := t.RegionCountries(r)
		if len(countries) > 1 {
			notes = append(notes, model.Note{
				Kind:   model.NoteHierarchyConflict,
				Field:  "geography",
				Detail: "region " + r + " appears under " + strings.Join(countries, ", "),
			})
		}
	}
	return notes
}

// StrictHierarchyConflicts reports standardized names whose parent attribute
// takes more than one value. Tables without a parent attribute never conflict.
func StrictHierarchyConflicts(t *model.ReferenceTable) []model.Note {
	parent := t.Schema.Parent
	if parent == "" {
		return nil
	}

	parents := make(map[string][]string)
	var order []string
	for _, e := range t.Entries {
		if e.StandardizedName == "" {
			continue
		}
		p := e.Attr(parent)
		if _, ok := parents[e.StandardizedName]; !ok {
			order = append(order, e.StandardizedName)
		}
		if !containsString(parents[e.StandardizedName], p) {
			parents[e.StandardizedName] = append(parents[e.StandardizedName], p)
		}
	}

	var notes []model.Note
	for _, name := range order {
		if ps := parents[name]; len(ps) > 1 {
			notes = append(notes, model.Note{
				Kind:   model.NoteHierarchyConflict,
				Field:  t.Field,
				Detail: name + " has " + parent + " values " + strings.Join(ps, ", "),
			})
		}
	}
	return notes
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
