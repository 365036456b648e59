package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
)

const historyColumns = `h.id, h.tipo_equipo, h.id_equipo, h.responsable_anterior,
	h.responsable_nuevo, h.fecha, COALESCE(h.observaciones, ''), h.registrado_por`

func scanHistory(sc scanner) (model.HistoryEntry, error) {
	var h model.HistoryEntry
	err := sc.Scan(&h.ID, &h.AssetType, &h.AssetID, &h.PreviousOwner,
		&h.NewOwner, &h.Date, &h.Notes, &h.RecordedBy)
	return h, err
}

func insertHistory(ctx context.Context, q querier, h *model.HistoryEntry) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO historial_movimientos
		 (tipo_equipo, id_equipo, responsable_anterior, responsable_nuevo, fecha, observaciones, registrado_por)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(h.AssetType), h.AssetID, h.PreviousOwner, h.NewOwner, h.Date, h.Notes, h.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("recording history: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting history id: %w", err)
	}
	h.ID = id
	return nil
}

// AppendHistory records a custody change by hand. The date defaults to now.
func AppendHistory(ctx context.Context, db *sql.DB, h *model.HistoryEntry) error {
	if _, err := tableFor(h.AssetType); err != nil {
		return err
	}
	if h.AssetID <= 0 {
		return model.Invalid("id_equipo", "required")
	}
	if h.Date.IsZero() {
		h.Date = time.Now().UTC()
	}
	return insertHistory(ctx, db, h)
}

// HistoryFilter narrows a history listing. Zero fields match everything.
type HistoryFilter struct {
	Type    model.AssetType
	AssetID int64
}

// ListHistory returns history entries newest first. Outside an unlimited
// scope only entries for assets currently located in the scope's branch are
// returned.
func ListHistory(ctx context.Context, db *sql.DB, scope policy.Scope, filter HistoryFilter) ([]model.HistoryEntry, error) {
	if filter.Type != "" {
		if _, err := tableFor(filter.Type); err != nil {
			return nil, err
		}
	}

	cond, args, ok := scopeCondition(scope, "g.id_sucursal_ubicacion")
	if !ok {
		return nil, nil
	}

	query := `SELECT ` + historyColumns + ` FROM historial_movimientos h`
	var where []string
	if cond != "" {
		query += ` JOIN inventario_general g
		   ON g.tipo_equipo = h.tipo_equipo AND g.id_registro = h.id_equipo`
		where = append(where, cond)
	}
	if filter.Type != "" {
		where = append(where, "h.tipo_equipo = ?")
		args = append(args, string(filter.Type))
	}
	if filter.AssetID > 0 {
		where = append(where, "h.id_equipo = ?")
		args = append(args, filter.AssetID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY h.fecha DESC, h.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// GetHistoryEntry returns a history entry by id.
func GetHistoryEntry(ctx context.Context, db *sql.DB, id int64) (*model.HistoryEntry, error) {
	h, err := scanHistory(db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM historial_movimientos h WHERE h.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting history entry: %w", err)
	}
	return &h, nil
}
