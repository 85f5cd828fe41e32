package model

// EntrySource identifies where a reference entry came from.
type EntrySource string

const (
	SourceAuthoritative EntrySource = "authoritative"
	SourceCurated       EntrySource = "curated"
)

// ReferenceSchema describes the classification attributes of a strict
// (single-tier) reference table.
type ReferenceSchema struct {
	// Attributes lists classification columns in output order.
	Attributes []string `json:"attributes" yaml:"attributes"`
	// Required lists attributes that must be non-empty for an entry to be complete.
	Required []string `json:"required" yaml:"required"`
	// Parent names the attribute holding the entry's parent in a hierarchy
	// (e.g. risk category for a risk subcategory). Empty when flat.
	Parent string `json:"parent,omitempty" yaml:"parent"`
}

// ReferenceEntry is the authoritative record for one canonical value of a
// strict field.
type ReferenceEntry struct {
	OriginalName     string            `json:"original_name" yaml:"original_name"`
	StandardizedName string            `json:"standardized_name" yaml:"standardized_name"`
	Attributes       map[string]string `json:"attributes,omitempty" yaml:"attributes"`
	Source           EntrySource       `json:"source,omitempty" yaml:"-"`
}

// Attr returns the named attribute, or "" when unset.
func (e ReferenceEntry) Attr(name string) string {
	if e.Attributes == nil {
		return ""
	}
	return e.Attributes[name]
}

// ReferenceTable is an indexed strict reference table.
type ReferenceTable struct {
	Field   string
	Schema  ReferenceSchema
	Entries []ReferenceEntry

	byKey map[string]int
}

// NewReferenceTable indexes entries by OriginalName. Entries without a
// standardized name are kept (so they can be reported) but are not matchable.
// When two entries share a key, the first one is indexed.
func NewReferenceTable(field string, schema ReferenceSchema, entries []ReferenceEntry) *ReferenceTable {
	t := &ReferenceTable{
		Field:   field,
		Schema:  schema,
		Entries: entries,
		byKey:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.OriginalName == "" || e.StandardizedName == "" {
			continue
		}
		if _, ok := t.byKey[e.OriginalName]; !ok {
			t.byKey[e.OriginalName] = i
		}
	}
	return t
}

// Lookup returns the matchable entry for key.
func (t *ReferenceTable) Lookup(key string) (ReferenceEntry, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return ReferenceEntry{}, false
	}
	return t.Entries[i], true
}

// Len returns the number of entries, matchable or not.
func (t *ReferenceTable) Len() int { return len(t.Entries) }

// GeoEntry is one row of the geography reference table. A country-only row
// has empty Region and RegionType; a standalone continent or supranational
// row has only Continent set.
type GeoEntry struct {
	Country    string      `json:"country" yaml:"country"`
	Region     string      `json:"subnational_region" yaml:"subnational_region"`
	RegionType string      `json:"subnational_region_type" yaml:"subnational_region_type"`
	Continent  string      `json:"continent" yaml:"continent"`
	Source     EntrySource `json:"source,omitempty" yaml:"-"`
}

// Key returns the full key tuple used for de-duplication.
func (g GeoEntry) Key() [3]string {
	return [3]string{g.Country, g.Region, g.RegionType}
}

// Standalone reports whether the row is a continent-level or supranational
// entry with no country.
func (g GeoEntry) Standalone() bool {
	return g.Country == "" && g.Region == "" && g.RegionType == "" && g.Continent != ""
}

// GeoTable is the indexed geography reference table.
type GeoTable struct {
	Entries []GeoEntry

	triples       map[[3]string]int
	countries     map[string]string // country → continent
	regions       map[string]bool
	types         map[string]bool
	regionTypes   map[[2]string]string // (country, region) → first type
	regionCountry map[string][]string  // region → distinct countries
	standalone    map[string]bool
}

// NewGeoTable builds lookup indexes over entries. Indexes keep the first
// value seen, so callers control precedence through entry order.
func NewGeoTable(entries []GeoEntry) *GeoTable {
	t := &GeoTable{
		Entries:       entries,
		triples:       make(map[[3]string]int, len(entries)),
		countries:     make(map[string]string),
		regions:       make(map[string]bool),
		types:         make(map[string]bool),
		regionTypes:   make(map[[2]string]string),
		regionCountry: make(map[string][]string),
		standalone:    make(map[string]bool),
	}
	for i, e := range entries {
		if e.Standalone() {
			t.standalone[e.Continent] = true
			continue
		}
		if _, ok := t.triples[e.Key()]; !ok {
			t.triples[e.Key()] = i
		}
		if e.Country != "" {
			if cont, ok := t.countries[e.Country]; !ok || cont == "" {
				t.countries[e.Country] = e.Continent
			}
		}
		if e.Region != "" {
			t.regions[e.Region] = true
			if e.Country != "" && !contains(t.regionCountry[e.Region], e.Country) {
				t.regionCountry[e.Region] = append(t.regionCountry[e.Region], e.Country)
			}
		}
		if e.RegionType != "" {
			t.types[e.RegionType] = true
			k := [2]string{e.Country, e.Region}
			if _, ok := t.regionTypes[k]; !ok {
				t.regionTypes[k] = e.RegionType
			}
		}
	}
	return t
}

// Triple returns the entry for an exact (country, region, type) key.
func (t *GeoTable) Triple(country, region, regionType string) (GeoEntry, bool) {
	i, ok := t.triples[[3]string{country, region, regionType}]
	if !ok {
		return GeoEntry{}, false
	}
	return t.Entries[i], true
}

// Country reports whether country is a valid country and returns its continent.
func (t *GeoTable) Country(country string) (string, bool) {
	cont, ok := t.countries[country]
	return cont, ok
}

// HasRegion reports whether region appears under any country.
func (t *GeoTable) HasRegion(region string) bool { return t.regions[region] }

// HasType reports whether regionType appears anywhere in the table.
func (t *GeoTable) HasType(regionType string) bool { return t.types[regionType] }

// ImputeType returns the region type of the first row matching (country, region).
func (t *GeoTable) ImputeType(country, region string) (string, bool) {
	rt, ok := t.regionTypes[[2]string{country, region}]
	return rt, ok
}

// IsStandalone reports whether value is a standalone continent or
// supranational entry.
func (t *GeoTable) IsStandalone(value string) bool { return t.standalone[value] }

// RegionCountries returns the distinct countries a region appears under.
func (t *GeoTable) RegionCountries(region string) []string { return t.regionCountry[region] }

// Regions returns every region name in the table.
func (t *GeoTable) Regions() []string {
	out := make([]string, 0, len(t.regions))
	for r := range t.regions {
		out = append(out, r)
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
