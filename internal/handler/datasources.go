package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/schema"
	"github.com/queryloom/queryloom/internal/store"
)

// DataSourcesHandler manages registered data sources and serves their live
// schemas.
type DataSourcesHandler struct {
	store    *store.Store
	resolver *schema.Resolver
}

func NewDataSourcesHandler(st *store.Store, resolver *schema.Resolver) *DataSourcesHandler {
	return &DataSourcesHandler{store: st, resolver: resolver}
}

func dataSourceIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "datasource_id"), 10, 64)
}

func dataSourceIDQuery(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get("datasource_id"), 10, 64)
}

// Register handles POST /api/v1/datasources
func (h *DataSourcesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterDataSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.Config.Dialect == "" {
		models.WriteError(w, http.StatusBadRequest, "name and config.dialect are required")
		return
	}
	if req.Kind == "" {
		req.Kind = models.KindDatabase
	}

	id, err := h.store.RegisterDataSource(r.Context(), req.Name, req.Kind, req.Config)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			models.WriteError(w, http.StatusConflict, "data source name already exists: "+req.Name)
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to register data source: "+err.Error())
		return
	}

	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"id":     id,
		"name":   req.Name,
	})
}

// List handles GET /api/v1/datasources. Connection secrets are redacted.
func (h *DataSourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListDataSources(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to list data sources: "+err.Error())
		return
	}
	for i := range sources {
		sources[i].Config = sources[i].Config.Redacted()
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"datasources": sources,
		"count":       len(sources),
	})
}

// Config handles GET /api/v1/datasources/{datasource_id}/config. The stored
// connection parameters are returned with secrets redacted.
func (h *DataSourcesHandler) Config(w http.ResponseWriter, r *http.Request) {
	id, err := dataSourceIDParam(r)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid datasource id")
		return
	}

	ds, err := h.store.GetDataSource(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			models.WriteError(w, http.StatusNotFound, "data source not found")
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to load data source: "+err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"id":     ds.ID,
		"name":   ds.Name,
		"type":   ds.Kind,
		"config": ds.Config.Redacted(),
	})
}

// Tables handles GET /api/v1/tables?datasource_id=N, listing queryable table
// names from the live connection.
func (h *DataSourcesHandler) Tables(w http.ResponseWriter, r *http.Request) {
	id, err := dataSourceIDQuery(r)
	if err != nil || id <= 0 {
		models.WriteError(w, http.StatusBadRequest, "datasource_id query parameter is required")
		return
	}

	names, err := h.resolver.ListTableNames(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			models.WriteError(w, http.StatusNotFound, "data source not found")
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to list tables: "+err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"tables": names,
		"count":  len(names),
	})
}

// Schema handles GET /api/v1/schema?datasource_id=N&tables=a,b (all tables
// when the parameter is omitted).
func (h *DataSourcesHandler) Schema(w http.ResponseWriter, r *http.Request) {
	id, err := dataSourceIDQuery(r)
	if err != nil || id <= 0 {
		models.WriteError(w, http.StatusBadRequest, "datasource_id query parameter is required")
		return
	}
	h.writeSchema(w, r, id, parseTablesParam(r.URL.Query().Get("tables")))
}

// SourceSchema handles GET /api/v1/datasources/{datasource_id}/schema
func (h *DataSourcesHandler) SourceSchema(w http.ResponseWriter, r *http.Request) {
	id, err := dataSourceIDParam(r)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid datasource id")
		return
	}
	h.writeSchema(w, r, id, parseTablesParam(r.URL.Query().Get("tables")))
}

func (h *DataSourcesHandler) writeSchema(w http.ResponseWriter, r *http.Request, id int64, tables []string) {
	schemas, err := h.resolver.Resolve(r.Context(), id, tables)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			models.WriteError(w, http.StatusNotFound, "data source not found")
		case errors.Is(err, schema.ErrNoSchema):
			models.WriteError(w, http.StatusUnprocessableEntity, "no schema could be resolved")
		default:
			models.WriteError(w, http.StatusInternalServerError, "failed to resolve schema: "+err.Error())
		}
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		models.WriteJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"schema": schema.ToMarkdown(schemas),
		})
		return
	}

	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"schema": schemas,
	})
}

func parseTablesParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var tables []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}
