package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/queryloom/queryloom/internal/executor"
	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/resultcache"
	"github.com/queryloom/queryloom/internal/store"
)

// ExecuteHandler runs SQL against user data sources and serves cached
// results and the audit log.
type ExecuteHandler struct {
	exec *executor.Executor
	logs *store.Store
}

func NewExecuteHandler(exec *executor.Executor, logs *store.Store) *ExecuteHandler {
	return &ExecuteHandler{exec: exec, logs: logs}
}

// Execute handles POST /api/v1/execute_sql. Execution failures come back as
// a 200 with status "error" in the body; the attempt is still logged.
func (h *ExecuteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SQL == "" {
		models.WriteError(w, http.StatusBadRequest, "sql is required")
		return
	}

	models.WriteJSON(w, http.StatusOK, h.exec.Execute(r.Context(), req))
}

// QueryResult handles GET /api/v1/query_result?query_id=X&format=json|csv
func (h *ExecuteHandler) QueryResult(w http.ResponseWriter, r *http.Request) {
	queryID := r.URL.Query().Get("query_id")
	if queryID == "" {
		models.WriteError(w, http.StatusBadRequest, "query_id query parameter is required")
		return
	}

	result, err := h.exec.Result(queryID)
	if err != nil {
		if errors.Is(err, resultcache.ErrNotFound) {
			models.WriteError(w, http.StatusNotFound, "no result for query_id "+queryID)
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to load result: "+err.Error())
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		if err := models.WriteCSV(w, queryID, result); err != nil {
			models.WriteError(w, http.StatusInternalServerError, "failed to write csv: "+err.Error())
		}
		return
	}

	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"query_id": queryID,
		"result":   result,
	})
}

// QueryLogs handles GET /api/v1/query_logs
func (h *ExecuteHandler) QueryLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.logs.ListQueryLogs(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to list query logs: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"logs":   logs,
		"count":  len(logs),
	})
}
