package model

import (
	"strconv"
)

// Fixed long-table columns. Downstream joins depend on these names.
const (
	ColRecordID  = "record_id"
	ColTitle     = "title"
	ColPosition  = "position"
	ColMatchTier = "match_tier"
	ColIssueType = "issue_type"

	rawPrefix = "raw_"
)

// LongSchema is the column layout of one field's standardized long table:
//
//	record_id, title, position, raw_<col>..., <standard>..., <attributes>..., match_tier, issue_type
type LongSchema struct {
	RawColumns       []string `json:"raw_columns"`
	StandardColumns  []string `json:"standard_columns"`
	AttributeColumns []string `json:"attribute_columns"`
}

// Header returns the ordered column names.
func (s LongSchema) Header() []string {
	h := make([]string, 0, 5+len(s.RawColumns)+len(s.StandardColumns)+len(s.AttributeColumns))
	h = append(h, ColRecordID, ColTitle, ColPosition)
	for _, c := range s.RawColumns {
		h = append(h, rawPrefix+c)
	}
	h = append(h, s.StandardColumns...)
	h = append(h, s.AttributeColumns...)
	return append(h, ColMatchTier, ColIssueType)
}

// Width returns the number of columns in the header.
func (s LongSchema) Width() int {
	return 5 + len(s.RawColumns) + len(s.StandardColumns) + len(s.AttributeColumns)
}

// LongRow is one row of a standardized long table.
type LongRow struct {
	RecordID     string    `json:"record_id"`
	Title        string    `json:"title"`
	Position     int       `json:"position"`
	Raw          []string  `json:"raw"`
	Standardized []string  `json:"standardized"`
	Attributes   []string  `json:"attributes"`
	Tier         MatchTier `json:"match_tier"`
	Issue        IssueType `json:"issue_type,omitempty"`
}

// Cells renders the row in schema order. Short slices are padded with "".
func (r LongRow) Cells(s LongSchema) []string {
	out := make([]string, 0, s.Width())
	out = append(out, r.RecordID, r.Title, strconv.Itoa(r.Position))
	out = appendPadded(out, r.Raw, len(s.RawColumns))
	out = appendPadded(out, r.Standardized, len(s.StandardColumns))
	out = appendPadded(out, r.Attributes, len(s.AttributeColumns))
	return append(out, string(r.Tier), string(r.Issue))
}

func appendPadded(dst, src []string, n int) []string {
	for i := 0; i < n; i++ {
		if i < len(src) {
			dst = append(dst, src[i])
		} else {
			dst = append(dst, "")
		}
	}
	return dst
}

// LongTable is the standardized output of one field pipeline.
type LongTable struct {
	Field  string     `json:"field"`
	Schema LongSchema `json:"schema"`
	Rows   []LongRow  `json:"rows"`
}

// Accessor extracts one value from a LongRow.
type Accessor func(LongRow) string

// Accessor returns a typed accessor for a named column of the table's schema.
// It returns false when the column does not exist.
func (t LongTable) Accessor(column string) (Accessor, bool) {
	switch column {
	case ColRecordID:
		return func(r LongRow) string { return r.RecordID }, true
	case ColTitle:
		return func(r LongRow) string { return r.Title }, true
	case ColPosition:
		return func(r LongRow) string { return strconv.Itoa(r.Position) }, true
	case ColMatchTier:
		return func(r LongRow) string { return string(r.Tier) }, true
	case ColIssueType:
		return func(r LongRow) string { return string(r.Issue) }, true
	}
	if i := indexOf(t.Schema.StandardColumns, column); i >= 0 {
		return func(r LongRow) string { return at(r.Standardized, i) }, true
	}
	if i := indexOf(t.Schema.AttributeColumns, column); i >= 0 {
		return func(r LongRow) string { return at(r.Attributes, i) }, true
	}
	for i, c := range t.Schema.RawColumns {
		if rawPrefix+c == column {
			return func(r LongRow) string { return at(r.Raw, i) }, true
		}
	}
	return nil, false
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func at(ss []string, i int) string {
	if i < len(ss) {
		return ss[i]
	}
	return ""
}
