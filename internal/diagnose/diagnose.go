// Package diagnose summarizes match failures and reference-table defects for
// manual triage. It never stops a pipeline: standardization is best-effort.
package diagnose

import (
	"sort"

	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// UnmatchedRow is one distinct (study, raw value, issue) failure.
type UnmatchedRow struct {
	RecordID string          `json:"record_id"`
	Title    string          `json:"title"`
	RawValue string          `json:"raw_value"`
	Issue    model.IssueType `json:"issue_type"`
}

// Frequency counts how often a failing raw value occurs. Mentions counts
// (study, mention) pairs; Records counts distinct studies.
type Frequency struct {
	RawValue string          `json:"raw_value"`
	Issue    model.IssueType `json:"issue_type"`
	Mentions int             `json:"mentions"`
	Records  int             `json:"records"`
}

// Report is the diagnostics output of one field pipeline run.
type Report struct {
	Field       string                  `json:"field"`
	Entries     int                     `json:"entries"`
	Matched     int                     `json:"matched"`
	Tiers       map[model.MatchTier]int `json:"tiers"`
	Unmatched   []UnmatchedRow          `json:"unmatched"`
	Frequencies []Frequency             `json:"frequencies"`
	Incomplete  []IncompleteEntry       `json:"incomplete"`
	Notes       []model.Note            `json:"notes"`
}

// UnmatchedCount returns the number of entries that failed to match.
func (r Report) UnmatchedCount() int { return r.Entries - r.Matched }

// Clean reports whether every entry matched.
func (r Report) Clean() bool { return r.Entries == r.Matched }

// Build assembles a Report from match results, reference-table defects and
// notes raised by earlier stages.
func Build(field string, results []model.MatchResult, incomplete []IncompleteEntry, notes []model.Note) Report {
	r := Report{
		Field:      field,
		Entries:    len(results),
		Tiers:      make(map[model.MatchTier]int),
		Incomplete: incomplete,
		Notes:      notes,
	}
	for _, m := range results {
		r.Tiers[m.Tier]++
		if m.Matched() {
			r.Matched++
		}
	}
	r.Unmatched, r.Frequencies = Unmatched(results)
	return r
}

type freqKey struct {
	raw   string
	issue model.IssueType
}

// Unmatched returns the distinct failing rows in first-seen order and the
// per-value frequency table sorted by mentions, then value.
func Unmatched(results []model.MatchResult) ([]UnmatchedRow, []Frequency) {
	var rows []UnmatchedRow
	seenRow := make(map[UnmatchedRow]bool)
	counts := make(map[freqKey]*Frequency)
	records := make(map[freqKey]map[string]bool)
	var order []freqKey

	for _, m := range results {
		if m.Matched() {
			continue
		}
		row := UnmatchedRow{
			RecordID: m.Entry.RecordID,
			Title:    m.Entry.Title,
			RawValue: m.Entry.Raw(),
			Issue:    m.Issue,
		}
		if !seenRow[row] {
			seenRow[row] = true
			rows = append(rows, row)
		}

		k := freqKey{raw: row.RawValue, issue: row.Issue}
		f, ok := counts[k]
		if !ok {
			f = &Frequency{RawValue: k.raw, Issue: k.issue}
			counts[k] = f
			records[k] = make(map[string]bool)
			order = append(order, k)
		}
		f.Mentions++
		if !records[k][row.RecordID] {
			records[k][row.RecordID] = true
			f.Records++
		}
	}

	freqs := make([]Frequency, 0, len(order))
	for _, k := range order {
		freqs = append(freqs, *counts[k])
	}
	sort.SliceStable(freqs, func(i, j int) bool {
		if freqs[i].Mentions != freqs[j].Mentions {
			return freqs[i].Mentions > freqs[j].Mentions
		}
		if freqs[i].RawValue != freqs[j].RawValue {
			return freqs[i].RawValue < freqs[j].RawValue
		}
		return freqs[i].Issue < freqs[j].Issue
	})
	return rows, freqs
}

// Log emits the completion notice: a warning with the top failing values when
// anything is unmatched, otherwise an informational success line.
func (r Report) Log(logger *zap.Logger) {
	log := logger.With(zap.String("field", r.Field))

	for _, n := range r.Notes {
		log.Debug("data-quality note",
			zap.String("kind", string(n.Kind)),
			zap.String("record_id", n.RecordID),
			zap.String("detail", n.Detail),
		)
	}
	if len(r.Incomplete) > 0 {
		log.Warn("reference entries missing required attributes",
			zap.Int("incomplete", len(r.Incomplete)),
		)
	}

	if r.Clean() {
		log.Info("all values standardized",
			zap.Int("entries", r.Entries),
		)
		return
	}

	top := r.Frequencies
	if len(top) > 10 {
		top = top[:10]
	}
	log.Warn("unmatched values need review",
		zap.Int("entries", r.Entries),
		zap.Int("matched", r.Matched),
		zap.Int("unmatched", r.UnmatchedCount()),
		zap.Int("distinct_values", len(r.Frequencies)),
		zap.Any("top", top),
	)
}
