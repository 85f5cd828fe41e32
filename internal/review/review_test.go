package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, "studies.xlsx", []string{"policy"})
	require.NoError(t, err)
	require.NoError(t, st.RecordField(ctx, &model.FieldRun{
		RunID: run.ID, Field: "policy", Status: model.RunStatusComplete,
		Entries: 4, Matched: 2, Unmatched: 2,
	}, []model.UnmatchedValue{
		{RawValue: "Invented Act (2099)", Issue: model.IssueUnknownValue, Mentions: 2, Records: 2},
	}))
	require.NoError(t, st.FinishRun(ctx, run.ID, model.RunStatusComplete, ""))

	srv := httptest.NewServer(NewRouter(NewHandler(st), []string{"*"}))
	t.Cleanup(srv.Close)
	return srv, run.ID
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListRuns(t *testing.T) {
	srv, runID := newTestServer(t)

	var runs []model.Run
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)

	runs = nil
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs?status=failed", &runs))
	assert.Empty(t, runs)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/runs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/runs?offset=-1", nil))
}

func TestGetRun(t *testing.T) {
	srv, runID := newTestServer(t)

	var detail RunDetail
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs/"+runID, &detail))
	assert.Equal(t, model.RunStatusComplete, detail.Status)
	require.Len(t, detail.FieldRuns, 1)
	assert.Equal(t, 2, detail.FieldRuns[0].Unmatched)

	var errBody errorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/runs/missing", &errBody))
	assert.Equal(t, "run not found", errBody.Error)
}

func TestListFields(t *testing.T) {
	srv, runID := newTestServer(t)

	var fields []model.FieldRun
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs/"+runID+"/fields", &fields))
	require.Len(t, fields, 1)
	assert.Equal(t, "policy", fields[0].Field)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/runs/missing/fields", nil))
}

func TestListUnmatched(t *testing.T) {
	srv, runID := newTestServer(t)

	var values []model.UnmatchedValue
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs/"+runID+"/fields/policy/unmatched", &values))
	require.Len(t, values, 1)
	assert.Equal(t, "Invented Act (2099)", values[0].RawValue)
	assert.Equal(t, 2, values[0].Records)

	values = nil
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs/"+runID+"/fields/species/unmatched", &values))
	assert.Empty(t, values)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/runs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
