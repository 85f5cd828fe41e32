package review

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/store"
)

// Handler holds the review API dependencies.
type Handler struct {
	store store.Store
}

// NewHandler returns a Handler over st.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// RunDetail is a run with its per-field outcomes.
type RunDetail struct {
	model.Run
	FieldRuns []model.FieldRun `json:"field_runs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRuns handles GET /runs?status=&limit=&offset=.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := h.store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /runs/{id}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	fields, err := h.store.ListFieldRuns(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if fields == nil {
		fields = []model.FieldRun{}
	}
	writeJSON(w, http.StatusOK, RunDetail{Run: *run, FieldRuns: fields})
}

// ListFields handles GET /runs/{id}/fields.
func (h *Handler) ListFields(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetRun(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	fields, err := h.store.ListFieldRuns(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if fields == nil {
		fields = []model.FieldRun{}
	}
	writeJSON(w, http.StatusOK, fields)
}

// ListUnmatched handles GET /runs/{id}/fields/{field}/unmatched?limit=.
func (h *Handler) ListUnmatched(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	field := chi.URLParam(r, "field")
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if _, err := h.store.GetRun(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	values, err := h.store.ListUnmatched(r.Context(), id, field, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if values == nil {
		values = []model.UnmatchedValue{}
	}
	writeJSON(w, http.StatusOK, values)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	zap.L().Error("review: store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("review: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
