package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/store"
)

// InventoryHandler serves the aggregate ledger across all asset types.
type InventoryHandler struct {
	DB *sql.DB
}

// List handles GET /api/inventory. An optional ?tipo_equipo narrows the
// listing to one asset type.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.LedgerFilter
	if v := r.URL.Query().Get("tipo_equipo"); v != "" {
		t, err := model.ParseAssetType(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Type = t
	}

	items, err := store.ListLedger(r.Context(), h.DB, caller(r).Scope(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(items))
}

// Get handles GET /api/inventory/{tipo}/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := model.ParseAssetType(r.PathValue("tipo"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, model.Invalid("id", "must be a positive integer"))
		return
	}
	ref, err := model.NewAssetRef(t, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := store.GetAssetRecord(r.Context(), h.DB, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := caller(r).CanSeeBranch(rec.Entry.Branch); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}
