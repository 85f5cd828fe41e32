// Package summary computes descriptive counts over standardized long tables.
package summary

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/model"
)

// Count is the number of distinct records carrying one value.
type Count struct {
	Value   string  `json:"value"`
	Records int     `json:"records"`
	Share   float64 `json:"share"`
}

// Options controls which rows are counted.
type Options struct {
	// IncludeUnmatched counts unmatched rows too. Off by default so counts
	// only cover standardized values.
	IncludeUnmatched bool
}

// CountBy counts distinct records per value of acc. Blank values are not
// counted. Share is relative to the distinct records in the table that
// passed the row filter. Results are sorted by records desc, then value.
func CountBy(t model.LongTable, acc model.Accessor, opts Options) []Count {
	perValue := make(map[string]map[string]bool)
	total := make(map[string]bool)
	for _, r := range t.Rows {
		if !opts.IncludeUnmatched && (r.Tier == model.TierNone || r.Tier == "") {
			continue
		}
		total[r.RecordID] = true
		v := acc(r)
		if v == "" {
			continue
		}
		if perValue[v] == nil {
			perValue[v] = make(map[string]bool)
		}
		perValue[v][r.RecordID] = true
	}

	out := make([]Count, 0, len(perValue))
	for v, recs := range perValue {
		c := Count{Value: v, Records: len(recs)}
		if len(total) > 0 {
			c.Share = float64(len(recs)) / float64(len(total))
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Records != out[j].Records {
			return out[i].Records > out[j].Records
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// CountColumn resolves column on the table's schema and counts it.
func CountColumn(t model.LongTable, column string, opts Options) ([]Count, error) {
	acc, ok := t.Accessor(column)
	if !ok {
		return nil, eris.Errorf("summary: %s has no column %q", t.Field, column)
	}
	return CountBy(t, acc, opts), nil
}
