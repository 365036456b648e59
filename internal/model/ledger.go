package model

import (
	"encoding/json"
	"fmt"
)

// Status is the operational state of an inventoried asset.
type Status string

// Ledger statuses.
const (
	StatusDisposed   Status = "DeBaja"
	StatusAssigned   Status = "Asignado"
	StatusUnassigned Status = "SinAsignar"
	StatusInRepair   Status = "EnReparacion"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDisposed, StatusAssigned, StatusUnassigned, StatusInRepair:
		return true
	}
	return false
}

// UnmarshalJSON accepts the known statuses. A JSON null leaves s unchanged.
func (s *Status) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return Invalid("estado", "must be a string")
	}
	if !Status(v).Valid() {
		return Invalid("estado", "unknown status %q", v)
	}
	*s = Status(v)
	return nil
}

// LedgerEntry binds one asset row to its status, custody and location.
type LedgerEntry struct {
	ID              int64     `json:"id_inventario"`
	AssetType       AssetType `json:"tipo_equipo"`
	AssetID         int64     `json:"id_registro"`
	Status          Status    `json:"estado"`
	ResponsibleUser *int64    `json:"id_usuario_responsable"`
	ResponsibleArea *int64    `json:"id_area_responsable"`
	Branch          *int64    `json:"id_sucursal_ubicacion"`
	IntakeDate      Date      `json:"fecha_ingreso"`
	Notes           string    `json:"observaciones"`
	HasPhoto        bool      `json:"tiene_foto"`
}

// Ref returns the asset the entry points to.
func (e *LedgerEntry) Ref() AssetRef {
	return AssetRef{Type: e.AssetType, ID: e.AssetID}
}

// Validate checks the ledger fields supplied on asset creation.
func (e *LedgerEntry) Validate() error {
	if e.Status != "" && !e.Status.Valid() {
		return Invalid("estado", "unknown status %q", e.Status)
	}
	return nil
}

// LedgerPatch is a partial update of a ledger entry.
type LedgerPatch struct {
	Status          Optional[Status] `json:"estado"`
	ResponsibleUser Optional[*int64] `json:"id_usuario_responsable"`
	ResponsibleArea Optional[*int64] `json:"id_area_responsable"`
	Branch          Optional[*int64] `json:"id_sucursal_ubicacion"`
	IntakeDate      Optional[Date]   `json:"fecha_ingreso"`
	Notes           Optional[string] `json:"observaciones"`
}

func (p *LedgerPatch) Validate() error {
	if p.Status.Set && !p.Status.Value.Valid() {
		return Invalid("estado", "unknown status %q", p.Status.Value)
	}
	return nil
}

// LedgerItem is a ledger entry with the summary of its asset.
type LedgerItem struct {
	LedgerEntry
	Detail Detail `json:"detalle"`
}

// AssetRecord is a full asset row together with its ledger entry. It
// serialises as one flat object, the shape clients send on create.
type AssetRecord struct {
	Entry LedgerEntry
	Asset Asset
}

func (r AssetRecord) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if r.Asset != nil {
		if err := mergeJSON(fields, r.Asset); err != nil {
			return nil, err
		}
	} else {
		msg, _ := json.Marshal(MissingDetail(r.Entry.Ref()).Error)
		fields["error"] = msg
	}
	if err := mergeJSON(fields, r.Entry); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func mergeJSON(dst map[string]json.RawMessage, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", v, err)
	}
	return json.Unmarshal(data, &dst)
}
