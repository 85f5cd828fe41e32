package pipeline

import (
	"context"
	"time"

	"github.com/offset-permanence/curate-cli/internal/config"
	"github.com/offset-permanence/curate-cli/internal/diagnose"
	"github.com/offset-permanence/curate-cli/internal/explode"
	"github.com/offset-permanence/curate-cli/internal/match"
	"github.com/offset-permanence/curate-cli/internal/model"
)

// Result is the outcome of one field pipeline.
type Result struct {
	Field    string
	Table    model.LongTable
	Report   diagnose.Report
	Duration time.Duration
	// Err is set when the field could not be processed. Table and Report
	// are empty in that case.
	Err error
}

// RunField explodes, matches and diagnoses one field over records.
func RunField(f *Field, records []model.Record) *Result {
	entries, notes := explode.Records(records, f.Spec)
	results := match.All(f.Matcher, entries)

	allNotes := make([]model.Note, 0, len(f.Notes)+len(notes))
	allNotes = append(allNotes, f.Notes...)
	allNotes = append(allNotes, notes...)

	return &Result{
		Field:  f.Spec.Name,
		Table:  LongTable(f.Spec, results),
		Report: diagnose.Build(f.Spec.Name, results, f.Incomplete, allNotes),
	}
}

// LongTable converts match results into the field's long table. Raw cells
// keep the exploded value before alias resolution.
func LongTable(spec model.FieldSpec, results []model.MatchResult) model.LongTable {
	t := model.LongTable{
		Field:  spec.Name,
		Schema: spec.LongSchema(),
		Rows:   make([]model.LongRow, len(results)),
	}
	for i, m := range results {
		t.Rows[i] = model.LongRow{
			RecordID:     m.Entry.RecordID,
			Title:        m.Entry.Title,
			Position:     m.Entry.Position,
			Raw:          m.Entry.Values,
			Standardized: m.Standardized,
			Attributes:   m.Attributes,
			Tier:         m.Tier,
			Issue:        m.Issue,
		}
	}
	return t
}

// Standardize loads the field's reference data and runs it over records.
// Loading failures are returned on the Result.
func Standardize(ctx context.Context, cfg config.ReferenceConfig, spec model.FieldSpec, records []model.Record) *Result {
	start := time.Now()
	f, err := LoadField(ctx, cfg, spec)
	if err != nil {
		return &Result{Field: spec.Name, Err: err, Duration: time.Since(start)}
	}
	res := RunField(f, records)
	res.Duration = time.Since(start)
	return res
}
