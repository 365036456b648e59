package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/inventario-ti/inventario/internal/events"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/store"
)

// HistoryHandler serves the custody history log.
type HistoryHandler struct {
	DB     *sql.DB
	Events events.Publisher
}

type historyRequest struct {
	AssetType     model.AssetType `json:"tipo_equipo"`
	AssetID       int64           `json:"id_equipo"`
	PreviousOwner *int64          `json:"responsable_anterior"`
	NewOwner      *int64          `json:"responsable_nuevo"`
	Date          model.Date      `json:"fecha"`
	Notes         string          `json:"observaciones"`
}

// List handles GET /api/history with optional ?tipo_equipo and ?id_equipo.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.HistoryFilter
	if v := r.URL.Query().Get("tipo_equipo"); v != "" {
		t, err := model.ParseAssetType(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Type = t
	}
	id, ok, err := queryID(r, "id_equipo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		filter.AssetID = id
	}

	entries, err := store.ListHistory(r.Context(), h.DB, caller(r).Scope(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(entries))
}

// Get handles GET /api/history/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := store.GetHistoryEntry(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c := caller(r)
	if !c.Scope().All {
		ledger, err := store.GetLedgerEntry(r.Context(), h.DB, entry.Ref())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.CanSeeBranch(ledger.Branch); err != nil {
			writeError(w, r, err)
			return
		}
	}
	jsonResponse(w, http.StatusOK, entry)
}

// Create handles POST /api/history.
func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.AssetType == "" {
		writeError(w, r, model.Invalid("tipo_equipo", "required"))
		return
	}

	c := caller(r)
	entry := &model.HistoryEntry{
		AssetType:     req.AssetType,
		AssetID:       req.AssetID,
		PreviousOwner: req.PreviousOwner,
		NewOwner:      req.NewOwner,
		Notes:         req.Notes,
		RecordedBy:    &c.UserID,
	}
	if req.Date.Valid() {
		entry.Date = req.Date.Time
	} else {
		entry.Date = time.Now().UTC()
	}

	if err := store.AppendHistory(r.Context(), h.DB, entry); err != nil {
		writeError(w, r, err)
		return
	}
	publishCustodyChange(r, h.Events, entry)

	slog.Info("history recorded", "asset", entry.Ref().String(), "history", entry.ID, "by", c.Login)
	message(w, http.StatusCreated, "Movimiento registrado correctamente", map[string]any{"id": entry.ID})
}
