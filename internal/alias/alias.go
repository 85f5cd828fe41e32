// Package alias maps known raw spellings to canonical spellings before
// reference lookup. Matching is exact and case-sensitive.
package alias

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// Map is the alias table for one column: raw spelling → canonical spelling.
type Map map[string]string

// Resolve returns the canonical spelling for raw, or raw unchanged.
func (m Map) Resolve(raw string) string {
	if v, ok := m[raw]; ok {
		return v
	}
	return raw
}

// Keys returns the raw spellings in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Collapse rewrites alias chains (a→b, b→c) so that every key points at its
// final target, which makes Resolve idempotent. Identity entries are removed.
// A cycle is an error. Each collapsed chain is reported as a note.
func (m Map) Collapse(column string) (Map, []model.Note, error) {
	out := make(Map, len(m))
	var notes []model.Note
	for _, k := range m.Keys() {
		target := m[k]
		seen := map[string]bool{k: true}
		hops := 0
		for {
			next, ok := m[target]
			if !ok || next == target {
				break
			}
			if seen[target] {
				return nil, nil, eris.Errorf("alias: cycle in %s aliases at %q", column, k)
			}
			seen[target] = true
			target = next
			hops++
		}
		if hops > 0 {
			notes = append(notes, model.Note{
				Kind:   model.NoteAliasChain,
				Field:  column,
				Detail: "alias " + k + " → " + m[k] + " collapsed to " + target,
			})
		}
		if target != k {
			out[k] = target
		}
	}
	return out, notes, nil
}

// Resolver holds the alias maps of every column of a field.
type Resolver struct {
	maps map[string]Map
}

// NewResolver returns a Resolver over per-column maps. Maps must already be
// collapsed (see Map.Collapse).
func NewResolver(maps map[string]Map) *Resolver {
	if maps == nil {
		maps = map[string]Map{}
	}
	return &Resolver{maps: maps}
}

// Resolve maps raw through the column's alias table. Columns without a table
// and values without an entry pass through unchanged.
func (r *Resolver) Resolve(column, raw string) string {
	if raw == "" {
		return raw
	}
	m, ok := r.maps[column]
	if !ok {
		return raw
	}
	return m.Resolve(raw)
}

// ResolveAll resolves values aligned with columns.
func (r *Resolver) ResolveAll(columns, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		col := ""
		if i < len(columns) {
			col = columns[i]
		}
		out[i] = r.Resolve(col, v)
	}
	return out
}

// Map returns the alias map of column, or nil.
func (r *Resolver) Map(column string) Map {
	return r.maps[column]
}
