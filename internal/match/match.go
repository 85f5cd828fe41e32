// Package match classifies exploded entries against reference tables.
package match

import (
	"github.com/offset-permanence/curate-cli/internal/alias"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// Matcher classifies one exploded entry. Implementations must be total:
// every entry yields exactly one result.
type Matcher interface {
	Match(e model.ExplodedEntry) model.MatchResult
}

// All runs m over entries, preserving order.
func All(m Matcher, entries []model.ExplodedEntry) []model.MatchResult {
	out := make([]model.MatchResult, len(entries))
	for i, e := range entries {
		out[i] = m.Match(e)
	}
	return out
}

// Strict is the single-tier matcher: the alias-resolved key column must
// equal a reference key exactly.
type Strict struct {
	table   *model.ReferenceTable
	aliases *alias.Resolver
}

// NewStrict returns a strict matcher over table.
func NewStrict(table *model.ReferenceTable, aliases *alias.Resolver) *Strict {
	if aliases == nil {
		aliases = alias.NewResolver(nil)
	}
	return &Strict{table: table, aliases: aliases}
}

// Match implements Matcher.
func (s *Strict) Match(e model.ExplodedEntry) model.MatchResult {
	resolved := s.aliases.ResolveAll(e.Columns, e.Values)
	res := model.MatchResult{
		Entry:    e,
		Resolved: resolved,
		Tier:     model.TierNone,
		Issue:    model.IssueUnknownValue,
	}
	if len(resolved) == 0 || resolved[0] == "" {
		return res
	}

	ref, ok := s.table.Lookup(resolved[0])
	if !ok {
		return res
	}
	res.Tier = model.TierFull
	res.Issue = model.IssueNone
	res.Standardized = []string{ref.StandardizedName}
	res.Attributes = make([]string, len(s.table.Schema.Attributes))
	for i, attr := range s.table.Schema.Attributes {
		res.Attributes[i] = ref.Attr(attr)
	}
	return res
}
