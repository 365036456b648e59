package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/inventario-ti/inventario/internal/events"
	"github.com/inventario-ti/inventario/internal/imaging"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
	"github.com/inventario-ti/inventario/internal/store"
)

// assetKind binds a URL collection to one asset type.
type assetKind struct {
	Path     string
	Type     model.AssetType
	IDField  string
	Created  string
	Updated  string
	Deleted  string
	newAsset func() model.Asset
	newPatch func() model.AssetPatch
}

var assetKinds = []assetKind{
	{
		Path:     "computers",
		Type:     model.AssetComputer,
		IDField:  "id_equipo",
		Created:  "Equipo agregado correctamente",
		Updated:  "Equipo actualizado correctamente",
		Deleted:  "Equipo eliminado correctamente",
		newAsset: func() model.Asset { return &model.Computer{} },
		newPatch: func() model.AssetPatch { return &model.ComputerPatch{} },
	},
	{
		Path:     "phones",
		Type:     model.AssetPhone,
		IDField:  "id_celular",
		Created:  "Celular agregado correctamente",
		Updated:  "Celular actualizado correctamente",
		Deleted:  "Celular eliminado correctamente",
		newAsset: func() model.Asset { return &model.Phone{} },
		newPatch: func() model.AssetPatch { return &model.PhonePatch{} },
	},
	{
		Path:     "printers",
		Type:     model.AssetPrinter,
		IDField:  "id_impresora",
		Created:  "Impresora agregada correctamente",
		Updated:  "Impresora actualizada correctamente",
		Deleted:  "Impresora eliminada correctamente",
		newAsset: func() model.Asset { return &model.Printer{} },
		newPatch: func() model.AssetPatch { return &model.PrinterPatch{} },
	},
}

// ledgerFields are the ledger columns accepted alongside a new asset.
type ledgerFields struct {
	Status          model.Status `json:"estado"`
	ResponsibleUser *int64       `json:"id_usuario_responsable"`
	ResponsibleArea *int64       `json:"id_area_responsable"`
	Branch          *int64       `json:"id_sucursal_ubicacion"`
	IntakeDate      model.Date   `json:"fecha_ingreso"`
	Notes           string       `json:"observaciones"`
}

func (f ledgerFields) entry() model.LedgerEntry {
	return model.LedgerEntry{
		Status:          f.Status,
		ResponsibleUser: f.ResponsibleUser,
		ResponsibleArea: f.ResponsibleArea,
		Branch:          f.Branch,
		IntakeDate:      f.IntakeDate,
		Notes:           f.Notes,
	}
}

type custodyNote struct {
	Note string `json:"observaciones_cambio"`
}

// AssetsHandler serves one asset collection, e.g. /api/computers.
type AssetsHandler struct {
	DB     *sql.DB
	Events events.Publisher
	Kind   assetKind
}

func (h *AssetsHandler) ref(r *http.Request) (model.AssetRef, error) {
	id, err := pathID(r)
	if err != nil {
		return model.AssetRef{}, err
	}
	return model.NewAssetRef(h.Kind.Type, id)
}

// visibleEntry loads the ledger entry of ref and checks that the caller may
// see its branch.
func visibleEntry(r *http.Request, db *sql.DB, ref model.AssetRef) (*model.LedgerEntry, error) {
	entry, err := store.GetLedgerEntry(r.Context(), db, ref)
	if err != nil {
		return nil, err
	}
	if err := caller(r).CanSeeBranch(entry.Branch); err != nil {
		return nil, err
	}
	return entry, nil
}

// List handles GET /api/{kind}.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := store.ListAssets(r.Context(), h.DB, h.Kind.Type, caller(r).Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(records))
}

// Get handles GET /api/{kind}/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
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

// Create handles POST /api/{kind}. The body is one flat object holding both
// the asset fields and the ledger fields.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	asset := h.Kind.newAsset()
	var fields ledgerFields
	if err := unmarshalBody(data, asset, &fields); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := store.CreateAsset(r.Context(), h.DB, asset, fields.entry())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("asset created", "asset", asset.Ref().String(), "ledger", entry.ID, "by", caller(r).Login)
	message(w, http.StatusCreated, h.Kind.Created, map[string]any{
		h.Kind.IDField:  entry.AssetID,
		"id_inventario": entry.ID,
	})
}

// Update handles PUT /api/{kind}/{id}. Only present fields change. A change
// of id_usuario_responsable is recorded in the history with
// observaciones_cambio as its note.
func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := h.Kind.newPatch()
	var ledger model.LedgerPatch
	var note custodyNote
	if err := unmarshalBody(data, patch, &ledger, &note); err != nil {
		writeError(w, r, err)
		return
	}

	c := caller(r)
	moved, err := store.UpdateAsset(r.Context(), h.DB, ref, store.AssetUpdate{
		Asset:  patch,
		Ledger: ledger,
		Note:   note.Note,
		Actor:  &c.UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if moved != nil {
		publishCustodyChange(r, h.Events, moved)
	}

	slog.Info("asset updated", "asset", ref.String(), "by", c.Login)
	message(w, http.StatusOK, h.Kind.Updated, nil)
}

// Delete handles DELETE /api/{kind}/{id}.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.DeleteAsset(r.Context(), h.DB, ref); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("asset deleted", "asset", ref.String(), "by", caller(r).Login)
	message(w, http.StatusOK, h.Kind.Deleted, nil)
}

// UploadPhoto handles PUT /api/{kind}/{id}/photo.
func (h *AssetsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.NormalizePhoto(file)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, "photo must be JPEG, PNG, GIF or WebP")
		return
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	case err != nil:
		writeError(w, r, err)
		return
	}

	if err := store.SetAssetPhoto(r.Context(), h.DB, ref, photo.Data, photo.MIME); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("asset photo uploaded", "asset", ref.String(), "width", photo.Width, "height", photo.Height)
	message(w, http.StatusOK, "Foto actualizada correctamente", nil)
}

// GetPhoto handles GET /api/{kind}/{id}/photo.
func (h *AssetsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := visibleEntry(r, h.DB, ref); err != nil {
		writeError(w, r, err)
		return
	}

	data, mime, err := store.GetAssetPhoto(r.Context(), h.DB, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// History handles GET /api/{kind}/{id}/history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := caller(r)
	if !c.Can(policy.AllBranches) {
		if _, err := visibleEntry(r, h.DB, ref); err != nil {
			writeError(w, r, err)
			return
		}
	}

	entries, err := store.ListHistory(r.Context(), h.DB, c.Scope(), store.HistoryFilter{Type: ref.Type, AssetID: ref.ID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(entries))
}

// publishCustodyChange sends the event for a committed history entry.
// Failures are logged; the change itself is already stored.
func publishCustodyChange(r *http.Request, publisher events.Publisher, h *model.HistoryEntry) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishCustodyChange(r.Context(), events.NewCustodyChanged(h)); err != nil {
		slog.Warn("publishing custody change failed", "history", h.ID, "asset", h.Ref().String(), "error", err)
	}
}
