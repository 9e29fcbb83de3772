package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/store"
)

const version = "1.0.0"

// HealthHandler handles GET /health with a metadata store connectivity check.
type HealthHandler struct {
	store *store.Store
}

func NewHealthHandler(st *store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	status := "healthy"
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		checks["metadata_db"] = "unavailable: " + err.Error()
		status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		checks["metadata_db"] = "ok"
	}

	models.WriteJSON(w, code, map[string]any{
		"status":  status,
		"version": version,
		"checks":  checks,
	})
}
