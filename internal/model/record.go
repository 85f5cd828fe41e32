package model

import "strings"

// Record is one coded study from the source spreadsheet. The pipeline never
// mutates a Record after ingestion.
type Record struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Fields map[string]string `json:"fields"`
}

// Get returns the raw cell value for a source column, or "" when absent.
func (r Record) Get(column string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[column]
}

// HasJoinKey reports whether the record carries both identifier and title.
func (r Record) HasJoinKey() bool {
	return strings.TrimSpace(r.ID) != "" && strings.TrimSpace(r.Title) != ""
}

// ExplodedEntry is one atomic value extracted from a record's multi-valued
// field. Values is aligned with Columns; an empty string is a null.
type ExplodedEntry struct {
	RecordID string   `json:"record_id"`
	Title    string   `json:"title"`
	Field    string   `json:"field"`
	Position int      `json:"position"`
	Columns  []string `json:"columns"`
	Values   []string `json:"values"`
}

// Value returns the value for the named column, or "" when the column is not
// part of the entry.
func (e ExplodedEntry) Value(column string) string {
	for i, c := range e.Columns {
		if c == column && i < len(e.Values) {
			return e.Values[i]
		}
	}
	return ""
}

// Raw returns the entry's raw value. Jointly exploded entries render their
// columns separated by " | " with nulls left blank.
func (e ExplodedEntry) Raw() string {
	if len(e.Values) == 1 {
		return e.Values[0]
	}
	return strings.Join(e.Values, " | ")
}
