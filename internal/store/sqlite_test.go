package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offset-permanence/curate-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "studies.xlsx", []string{"geography", "policy"})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, st.FinishRun(ctx, run.ID, model.RunStatusPartial, "policy: reference table missing"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "studies.xlsx", got.Source)
	assert.Equal(t, []string{"geography", "policy"}, got.Fields)
	assert.Equal(t, model.RunStatusPartial, got.Status)
	assert.Equal(t, "policy: reference table missing", got.Error)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.FinishRun(context.Background(), "missing", model.RunStatusComplete, "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, "studies.xlsx", nil)
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, st.FinishRun(ctx, ids[0], model.RunStatusComplete, ""))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, ids[0], complete[0].ID)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)
}

func TestSQLite_RecordField(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "studies.xlsx", []string{"geography", "policy"})
	require.NoError(t, err)

	policy := &model.FieldRun{
		RunID: run.ID, Field: "policy", Status: model.RunStatusComplete,
		Entries: 5, Matched: 2, Unmatched: 3, Incomplete: 1,
		Tiers: map[model.MatchTier]int{model.TierFull: 2, model.TierNone: 3},
	}
	require.NoError(t, st.RecordField(ctx, policy, []model.UnmatchedValue{
		{RawValue: "Other Act", Issue: model.IssueUnknownValue, Mentions: 1, Records: 1},
		{RawValue: "Invented Act (2099)", Issue: model.IssueUnknownValue, Mentions: 2, Records: 2},
	}))
	geo := &model.FieldRun{RunID: run.ID, Field: "geography", Status: model.RunStatusFailed, Error: "no boundaries"}
	require.NoError(t, st.RecordField(ctx, geo, nil))

	fields, err := st.ListFieldRuns(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "geography", fields[0].Field)
	assert.Equal(t, "no boundaries", fields[0].Error)
	assert.Equal(t, "policy", fields[1].Field)
	assert.Equal(t, 3, fields[1].Unmatched)
	assert.Equal(t, 2, fields[1].Tiers[model.TierFull])

	values, err := st.ListUnmatched(ctx, run.ID, "policy", 0)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "Invented Act (2099)", values[0].RawValue, "most mentions first")
	assert.Equal(t, run.ID, values[0].RunID)

	values, err = st.ListUnmatched(ctx, run.ID, "policy", 1)
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestSQLite_RecordField_DuplicateFieldRejected(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "studies.xlsx", nil)
	require.NoError(t, err)

	require.NoError(t, st.RecordField(ctx, &model.FieldRun{RunID: run.ID, Field: "policy", Status: model.RunStatusComplete}, nil))
	err = st.RecordField(ctx, &model.FieldRun{RunID: run.ID, Field: "policy", Status: model.RunStatusComplete},
		[]model.UnmatchedValue{{RawValue: "x", Issue: model.IssueUnknownValue, Mentions: 1, Records: 1}})
	require.Error(t, err)

	values, err := st.ListUnmatched(ctx, run.ID, "policy", 0)
	require.NoError(t, err)
	assert.Empty(t, values, "failed insert rolls back its unmatched rows")
}
