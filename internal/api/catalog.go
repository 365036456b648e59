package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/store"
)

// CatalogHandler serves roles, branches and areas.
type CatalogHandler struct {
	DB *sql.DB
}

// Roles handles GET /api/roles.
func (h *CatalogHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := store.ListRoles(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(roles))
}

// Branches handles GET /api/branches.
func (h *CatalogHandler) Branches(w http.ResponseWriter, r *http.Request) {
	branches, err := store.ListBranches(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(branches))
}

// CreateBranch handles POST /api/branches.
func (h *CatalogHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req model.Branch
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	branch, err := store.CreateBranch(r.Context(), h.DB, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("branch created", "branch", branch.ID, "name", branch.Name, "by", caller(r).Login)
	message(w, http.StatusCreated, "Sucursal agregada correctamente", map[string]any{"id": branch.ID})
}

// Areas handles GET /api/areas.
func (h *CatalogHandler) Areas(w http.ResponseWriter, r *http.Request) {
	areas, err := store.ListAreas(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(areas))
}

// CreateArea handles POST /api/areas.
func (h *CatalogHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req model.Area
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	area, err := store.CreateArea(r.Context(), h.DB, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("area created", "area", area.ID, "name", area.Name, "by", caller(r).Login)
	message(w, http.StatusCreated, "Área agregada correctamente", map[string]any{"id": area.ID})
}
