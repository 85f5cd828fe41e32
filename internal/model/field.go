package model

// MatchKind selects the matching strategy for a field.
type MatchKind string

const (
	MatchStrict    MatchKind = "strict"
	MatchGeography MatchKind = "geography"
)

// Geography column names shared by the source table, the reference table and
// the long table.
const (
	ColCountry    = "country"
	ColRegion     = "subnational_region"
	ColRegionType = "subnational_region_type"
	ColContinent  = "continent"

	ColStandardizedName = "standardized_name"
)

// GeoColumns is the standard column order of the geography reference table.
var GeoColumns = []string{ColCountry, ColRegion, ColRegionType, ColContinent}

// FieldSpec parameterizes one field standardization pipeline.
type FieldSpec struct {
	// Name is the field identifier used for file names and logs.
	Name string `json:"name" yaml:"name"`
	// Columns are the source columns exploded together in lockstep. For
	// strict fields Columns[0] is the match key; the rest are carried along.
	Columns []string `json:"columns" yaml:"columns"`
	// AliasColumns lists the columns that have an alias table.
	AliasColumns []string `json:"alias_columns" yaml:"alias_columns"`
	Kind         MatchKind       `json:"kind" yaml:"kind"`
	Schema       ReferenceSchema `json:"schema" yaml:"schema"`
}

// KeyColumn returns the column strict matching is performed on.
func (f FieldSpec) KeyColumn() string {
	if len(f.Columns) == 0 {
		return ""
	}
	return f.Columns[0]
}

// LongSchema derives the long-table layout for the field.
func (f FieldSpec) LongSchema() LongSchema {
	s := LongSchema{RawColumns: f.Columns}
	if f.Kind == MatchGeography {
		s.StandardColumns = GeoColumns
		return s
	}
	s.StandardColumns = []string{ColStandardizedName}
	s.AttributeColumns = f.Schema.Attributes
	return s
}

// FieldRegistry is an indexed collection of field specs.
type FieldRegistry struct {
	Fields []FieldSpec
	byName map[string]*FieldSpec
}

// NewFieldRegistry creates a FieldRegistry with indexed lookups.
func NewFieldRegistry(fields []FieldSpec) *FieldRegistry {
	r := &FieldRegistry{
		Fields: fields,
		byName: make(map[string]*FieldSpec, len(fields)),
	}
	for i := range r.Fields {
		r.byName[r.Fields[i].Name] = &r.Fields[i]
	}
	return r
}

// ByName returns the spec for the given field, or nil if not found.
func (r *FieldRegistry) ByName(name string) *FieldSpec {
	return r.byName[name]
}

// Names returns field names in registration order.
func (r *FieldRegistry) Names() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Name
	}
	return out
}

// Select returns the specs for names, or every spec when names is empty.
// Unknown names are returned separately.
func (r *FieldRegistry) Select(names []string) ([]FieldSpec, []string) {
	if len(names) == 0 {
		return r.Fields, nil
	}
	var out []FieldSpec
	var unknown []string
	for _, n := range names {
		if f := r.byName[n]; f != nil {
			out = append(out, *f)
		} else {
			unknown = append(unknown, n)
		}
	}
	return out, unknown
}
