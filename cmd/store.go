package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/pipeline"
	"github.com/offset-permanence/curate-cli/internal/store"
)

// initStore opens the configured run store and applies its migration.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" && (cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite") {
		dsn = "curate.db"
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// selectFields resolves field names against the standard registry. Empty
// names fall back to pipeline.fields from config, then to every field.
func selectFields(names []string) ([]model.FieldSpec, error) {
	if len(names) == 0 {
		names = cfg.Pipeline.Fields
	}
	specs, unknown := pipeline.Registry().Select(names)
	if len(unknown) > 0 {
		return nil, eris.Errorf("unknown field(s) %v; known fields are %v", unknown, pipeline.Registry().Names())
	}
	return specs, nil
}

// selectField resolves exactly one field name.
func selectField(name string) (model.FieldSpec, error) {
	if name == "" {
		return model.FieldSpec{}, eris.New("--field is required")
	}
	specs, err := selectFields([]string{name})
	if err != nil {
		return model.FieldSpec{}, err
	}
	return specs[0], nil
}
