package model

import "time"

// DefaultCustodyNote is recorded when an ownership change carries no note.
const DefaultCustodyNote = "Cambio de responsable"

// HistoryEntry records one change of the user responsible for an asset.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	AssetType     AssetType `json:"tipo_equipo"`
	AssetID       int64     `json:"id_equipo"`
	PreviousOwner *int64    `json:"responsable_anterior"`
	NewOwner      *int64    `json:"responsable_nuevo"`
	Date          time.Time `json:"fecha"`
	Notes         string    `json:"observaciones,omitempty"`
	RecordedBy    *int64    `json:"registrado_por,omitempty"`
}

// Ref returns the asset the entry is about.
func (h *HistoryEntry) Ref() AssetRef {
	return AssetRef{Type: h.AssetType, ID: h.AssetID}
}

// SameOwner reports whether a and b name the same responsible user,
// treating two nils as equal.
func SameOwner(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
