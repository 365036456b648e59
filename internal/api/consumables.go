package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
	"github.com/inventario-ti/inventario/internal/store"
)

// ConsumablesHandler handles consumable stock endpoints.
type ConsumablesHandler struct {
	DB *sql.DB
}

// List handles GET /api/consumables. ?bajo_minimo=1 keeps only items under
// their minimum stock; administrators may pick a branch with ?sucursal=.
func (h *ConsumablesHandler) List(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	scope := c.Scope()

	branch, ok, err := queryID(r, "sucursal")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		if !c.Can(policy.AllBranches) {
			if err := c.CanSeeBranch(&branch); err != nil {
				writeError(w, r, err)
				return
			}
		}
		scope = policy.Scope{Branch: &branch}
	}

	var filter store.ConsumableFilter
	switch r.URL.Query().Get("bajo_minimo") {
	case "1", "true":
		filter.LowOnly = true
	}

	consumables, err := store.ListConsumables(r.Context(), h.DB, scope, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(consumables))
}

// Get handles GET /api/consumables/{id}.
func (h *ConsumablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	consumable, err := store.GetConsumable(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := caller(r).CanSeeBranch(consumable.BranchID); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, consumable)
}

// Create handles POST /api/consumables.
func (h *ConsumablesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Consumable
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	consumable, err := store.CreateConsumable(r.Context(), h.DB, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("consumable created", "consumable", consumable.ID, "type", consumable.Type, "by", caller(r).Login)
	message(w, http.StatusCreated, "Consumible agregado correctamente", map[string]any{"id": consumable.ID})
}

// Update handles PUT /api/consumables/{id}.
func (h *ConsumablesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch model.ConsumablePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	consumable, err := store.UpdateConsumable(r.Context(), h.DB, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if consumable.Low {
		slog.Warn("consumable below minimum stock", "consumable", consumable.ID, "stock", consumable.Stock, "minimum", consumable.MinStock)
	}

	slog.Info("consumable updated", "consumable", id, "by", caller(r).Login)
	message(w, http.StatusOK, "Consumible actualizado correctamente", nil)
}

// Delete handles DELETE /api/consumables/{id}.
func (h *ConsumablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.DeleteConsumable(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("consumable deleted", "consumable", id, "by", caller(r).Login)
	message(w, http.StatusOK, "Consumible eliminado correctamente", nil)
}
