// Package events publishes custody changes to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/inventario-ti/inventario/internal/model"
)

// CustodyQueue is the durable queue custody events are published to.
const CustodyQueue = "inventario.custodia"

// CustodyChanged is published after a history entry has been committed.
type CustodyChanged struct {
	HistoryID     int64           `json:"id_historial"`
	AssetType     model.AssetType `json:"tipo_equipo"`
	AssetID       int64           `json:"id_equipo"`
	PreviousOwner *int64          `json:"responsable_anterior"`
	NewOwner      *int64          `json:"responsable_nuevo"`
	Date          time.Time       `json:"fecha"`
	Notes         string          `json:"observaciones,omitempty"`
	RecordedBy    *int64          `json:"registrado_por,omitempty"`
}

// NewCustodyChanged builds the event for a stored history entry.
func NewCustodyChanged(h *model.HistoryEntry) CustodyChanged {
	return CustodyChanged{
		HistoryID:     h.ID,
		AssetType:     h.AssetType,
		AssetID:       h.AssetID,
		PreviousOwner: h.PreviousOwner,
		NewOwner:      h.NewOwner,
		Date:          h.Date.UTC(),
		Notes:         h.Notes,
		RecordedBy:    h.RecordedBy,
	}
}

// Publisher delivers custody events.
type Publisher interface {
	PublishCustodyChange(ctx context.Context, event CustodyChanged) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishCustodyChange(context.Context, CustodyChanged) error { return nil }
