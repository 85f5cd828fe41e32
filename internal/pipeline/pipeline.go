// Package pipeline runs the field standardization pipelines over the coded
// study table and records each run.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/offset-permanence/curate-cli/internal/config"
	"github.com/offset-permanence/curate-cli/internal/diagnose"
	"github.com/offset-permanence/curate-cli/internal/export"
	"github.com/offset-permanence/curate-cli/internal/ingest"
	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/store"
)

// Pipeline orchestrates every selected field pipeline for one source table.
type Pipeline struct {
	cfg    *config.Config
	store  store.Store
	fields []model.FieldSpec
}

// New creates a Pipeline. st may be nil, in which case runs are not recorded.
func New(cfg *config.Config, st store.Store, fields []model.FieldSpec) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, fields: fields}
}

// RunResult summarizes one standardization run.
type RunResult struct {
	RunID   string            `json:"run_id,omitempty"`
	Records int               `json:"records"`
	Status  model.RunStatus   `json:"status"`
	Results []*Result         `json:"-"`
	Files   map[string]string `json:"files"`
}

// Failed returns the fields that errored.
func (r *RunResult) Failed() []*Result {
	var out []*Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// SourceOptions maps the source config onto ingest options.
func SourceOptions(cfg config.SourceConfig) ingest.SourceOptions {
	return ingest.SourceOptions{
		Sheet:       cfg.Sheet,
		IDColumn:    cfg.IDColumn,
		TitleColumn: cfg.TitleColumn,
	}
}

// LoadRecords reads the configured source table and logs skipped rows.
func LoadRecords(ctx context.Context, cfg config.SourceConfig) ([]model.Record, error) {
	records, notes, err := ingest.LoadRecords(ctx, cfg.Path, SourceOptions(cfg))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load records")
	}

	log := zap.L().With(zap.String("component", "ingest"))
	for _, n := range notes {
		log.Debug("source row skipped",
			zap.String("kind", string(n.Kind)),
			zap.String("record_id", n.RecordID),
			zap.String("detail", n.Detail),
		)
	}
	if len(notes) > 0 {
		log.Warn("source rows skipped", zap.Int("skipped", len(notes)))
	}
	log.Info("records loaded", zap.String("path", cfg.Path), zap.Int("records", len(records)))
	return records, nil
}

// Run loads the source, runs every field concurrently, exports the results
// and records the run. A failing field does not stop the others; the run is
// marked partial instead. Only source and store failures abort the run.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	records, err := LoadRecords(ctx, p.cfg.Source)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(p.fields))
	for i, f := range p.fields {
		names[i] = f.Name
	}

	out := &RunResult{
		Records: len(records),
		Results: make([]*Result, len(p.fields)),
		Files:   make(map[string]string),
	}

	var run *model.Run
	if p.store != nil {
		run, err = p.store.CreateRun(ctx, p.cfg.Source.Path, names)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		out.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}
	log.Info("pipeline: starting run", zap.Strings("fields", names), zap.Int("records", len(records)))

	concurrency := p.cfg.Pipeline.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, spec := range p.fields {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := Standardize(gctx, p.cfg.Reference, spec, records)
			if res.Err == nil {
				res.Err = p.export(res)
			}
			out.Results[i] = res

			flog := log.With(zap.Int64("duration_ms", res.Duration.Milliseconds()))
			if res.Err != nil {
				flog.Error("pipeline: field failed", zap.String("field", spec.Name), zap.Error(res.Err))
				return nil
			}
			res.Report.Log(flog)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.finish(ctx, run, model.RunStatusFailed, err.Error())
		return nil, eris.Wrap(err, "pipeline: run")
	}

	for _, res := range out.Results {
		if res.Err == nil {
			out.Files[res.Field] = export.LongPath(p.cfg.Output.Dir, res.Field)
		}
	}

	if p.cfg.Output.Workbook {
		var reports []diagnose.Report
		for _, res := range out.Results {
			if res.Err == nil {
				reports = append(reports, res.Report)
			}
		}
		path := filepath.Join(p.cfg.Output.Dir, export.WorkbookName)
		if err := export.WriteWorkbook(path, reports); err != nil {
			log.Error("pipeline: write workbook", zap.Error(err))
		} else {
			out.Files["workbook"] = path
		}
	}

	if p.store != nil {
		for _, res := range out.Results {
			fr, values := FieldRun(run.ID, res)
			if err := p.store.RecordField(ctx, fr, values); err != nil {
				p.finish(ctx, run, model.RunStatusFailed, err.Error())
				return nil, eris.Wrapf(err, "pipeline: record field %s", res.Field)
			}
		}
	}

	failed := out.Failed()
	var msgs []string
	for _, res := range failed {
		msgs = append(msgs, res.Field+": "+res.Err.Error())
	}
	switch {
	case len(failed) == 0:
		out.Status = model.RunStatusComplete
	case len(failed) == len(out.Results):
		out.Status = model.RunStatusFailed
	default:
		out.Status = model.RunStatusPartial
	}
	p.finish(ctx, run, out.Status, strings.Join(msgs, "; "))

	log.Info("pipeline: run finished",
		zap.String("status", string(out.Status)),
		zap.Int("failed_fields", len(failed)),
	)
	return out, nil
}

func (p *Pipeline) export(res *Result) error {
	if _, err := export.WriteLongTable(p.cfg.Output.Dir, res.Table); err != nil {
		return err
	}
	_, err := export.WriteReport(p.cfg.Output.Dir, res.Report)
	return err
}

func (p *Pipeline) finish(ctx context.Context, run *model.Run, status model.RunStatus, msg string) {
	if p.store == nil || run == nil {
		return
	}
	if err := p.store.FinishRun(ctx, run.ID, status, msg); err != nil {
		zap.L().Warn("pipeline: failed to finish run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// FieldRun converts a field result into its stored form.
func FieldRun(runID string, res *Result) (*model.FieldRun, []model.UnmatchedValue) {
	fr := &model.FieldRun{
		RunID:      runID,
		Field:      res.Field,
		Status:     model.RunStatusComplete,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		fr.Status = model.RunStatusFailed
		fr.Error = res.Err.Error()
		return fr, nil
	}

	r := res.Report
	fr.Entries = r.Entries
	fr.Matched = r.Matched
	fr.Unmatched = r.UnmatchedCount()
	fr.Incomplete = len(r.Incomplete)
	fr.Notes = len(r.Notes)
	fr.Tiers = r.Tiers

	values := make([]model.UnmatchedValue, len(r.Frequencies))
	for i, f := range r.Frequencies {
		values[i] = model.UnmatchedValue{
			RunID:    runID,
			Field:    res.Field,
			RawValue: f.RawValue,
			Issue:    f.Issue,
			Mentions: f.Mentions,
			Records:  f.Records,
		}
	}
	return fr, values
}
