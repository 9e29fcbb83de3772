package handler

import (
	"encoding/json"
	"net/http"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/pipeline"
	"github.com/queryloom/queryloom/internal/store"
)

// DescriptionsHandler maintains the curated table and column descriptions
// that ground table selection and schema annotation.
type DescriptionsHandler struct {
	store *store.Store
	pipe  *pipeline.Pipeline
}

func NewDescriptionsHandler(st *store.Store, pipe *pipeline.Pipeline) *DescriptionsHandler {
	return &DescriptionsHandler{store: st, pipe: pipe}
}

// Upsert handles POST /api/v1/descriptions
func (h *DescriptionsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var payload models.DescriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if payload.DataSourceID <= 0 {
		models.WriteError(w, http.StatusBadRequest, "data_source_id is required")
		return
	}

	tablesUpdated, columnsUpdated, err := h.store.UpsertDescriptions(r.Context(), payload)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to save descriptions: "+err.Error())
		return
	}

	// Selection prompts must see the new text immediately.
	h.pipe.InvalidateDescriptions(payload.DataSourceID)

	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"tables_updated":  tablesUpdated,
		"columns_updated": columnsUpdated,
	})
}
