package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/pipeline"
	"github.com/queryloom/queryloom/internal/schema"
	"github.com/queryloom/queryloom/internal/security"
	"github.com/queryloom/queryloom/internal/store"
)

// GenerateHandler exposes the NL-to-SQL pipeline: synchronous and streaming
// generation, query repair, and query suggestions.
type GenerateHandler struct {
	pipe *pipeline.Pipeline
}

func NewGenerateHandler(pipe *pipeline.Pipeline) *GenerateHandler {
	return &GenerateHandler{pipe: pipe}
}

func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrNoSchema), errors.Is(err, pipeline.ErrNoTablesSelected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Generate handles POST /api/v1/generate_sql
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" || req.DataSourceID <= 0 {
		models.WriteError(w, http.StatusBadRequest, "question and datasource_id are required")
		return
	}
	if err := security.CheckQuestion(req.Question); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.pipe.Generate(r.Context(), req)
	if err != nil {
		models.WriteError(w, pipelineStatus(err), "sql generation failed: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, resp)
}

// GenerateStream handles POST /api/v1/generate_sql_stream as an SSE stream
// of pipeline events. A disconnecting client cancels the run.
func (h *GenerateHandler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" || req.DataSourceID <= 0 {
		models.WriteError(w, http.StatusBadRequest, "question and datasource_id are required")
		return
	}
	if err := security.CheckQuestion(req.Question); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		models.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(v any) error {
		if err := r.Context().Err(); err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := h.pipe.GenerateStream(r.Context(), req, func(ev pipeline.Event) error {
		return emit(ev)
	})
	if err != nil {
		log.Warn().Err(err).Int64("datasource_id", req.DataSourceID).Msg("streaming generation failed")
		// The response status is already committed; report in-band.
		_ = emit(map[string]any{"type": "error", "message": err.Error()})
	}
}

// FixSQL handles POST /api/v1/fix_sql
func (h *GenerateHandler) FixSQL(w http.ResponseWriter, r *http.Request) {
	var req models.FixSQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.BrokenSQL == "" {
		models.WriteError(w, http.StatusBadRequest, "broken_sql is required")
		return
	}

	fixed, err := h.pipe.Repair(r.Context(), req)
	if err != nil {
		models.WriteError(w, pipelineStatus(err), "sql repair failed: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"fixed_sql": fixed,
	})
}

// SuggestQueries handles GET /api/v1/suggest_queries?datasource_id=N
func (h *GenerateHandler) SuggestQueries(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("datasource_id"), 10, 64)
	if err != nil || id <= 0 {
		models.WriteError(w, http.StatusBadRequest, "datasource_id query parameter is required")
		return
	}

	suggestions, err := h.pipe.SuggestQueries(r.Context(), id)
	if err != nil {
		models.WriteError(w, pipelineStatus(err), "suggestion generation failed: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"suggestions": suggestions,
	})
}
