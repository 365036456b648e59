package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
)

const ledgerColumns = `id_inventario, tipo_equipo, id_registro, estado,
	id_usuario_responsable, id_area_responsable, id_sucursal_ubicacion,
	fecha_ingreso, COALESCE(observaciones, ''), foto IS NOT NULL`

func scanLedgerEntry(sc scanner) (model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := sc.Scan(&e.ID, &e.AssetType, &e.AssetID, &e.Status,
		&e.ResponsibleUser, &e.ResponsibleArea, &e.Branch,
		&e.IntakeDate, &e.Notes, &e.HasPhoto)
	return e, err
}

// LedgerFilter narrows a ledger listing. A zero filter matches every entry.
type LedgerFilter struct {
	Type model.AssetType
}

// scopeCondition restricts column to the branches in scope. ok is false when
// the scope can never match anything.
func scopeCondition(scope policy.Scope, column string) (cond string, args []any, ok bool) {
	switch {
	case scope.All:
		return "", nil, true
	case scope.Branch == nil:
		return "", nil, false
	default:
		return column + " = ?", []any{*scope.Branch}, true
	}
}

func listEntries(ctx context.Context, db *sql.DB, scope policy.Scope, filter LedgerFilter) ([]model.LedgerEntry, error) {
	cond, args, ok := scopeCondition(scope, "id_sucursal_ubicacion")
	if !ok {
		return nil, nil
	}
	var where []string
	if cond != "" {
		where = append(where, cond)
	}
	if filter.Type != "" {
		where = append(where, "tipo_equipo = ?")
		args = append(args, string(filter.Type))
	}

	query := `SELECT ` + ledgerColumns + ` FROM inventario_general`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id_inventario`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// resolveAssets loads the asset rows behind entries, one query per type.
// Entries whose row is missing have no key in the result.
func resolveAssets(ctx context.Context, db *sql.DB, entries []model.LedgerEntry) (map[model.AssetRef]model.Asset, error) {
	ids := make(map[model.AssetType][]int64)
	for _, e := range entries {
		ids[e.AssetType] = append(ids[e.AssetType], e.AssetID)
	}

	assets := make(map[model.AssetRef]model.Asset, len(entries))
	for _, t := range model.AssetTypes {
		if len(ids[t]) == 0 {
			continue
		}
		found, err := assetTables[t].lookup(ctx, db, ids[t])
		if err != nil {
			return nil, err
		}
		for _, a := range found {
			assets[a.Ref()] = a
		}
	}
	return assets, nil
}

// ListLedger returns the ledger entries visible in scope, each with a summary
// of its asset. An entry whose asset row is missing is still returned, with
// the detail's Error set.
func ListLedger(ctx context.Context, db *sql.DB, scope policy.Scope, filter LedgerFilter) ([]model.LedgerItem, error) {
	if filter.Type != "" {
		if _, err := tableFor(filter.Type); err != nil {
			return nil, err
		}
	}

	entries, err := listEntries(ctx, db, scope, filter)
	if err != nil {
		return nil, err
	}
	assets, err := resolveAssets(ctx, db, entries)
	if err != nil {
		return nil, err
	}

	items := make([]model.LedgerItem, 0, len(entries))
	for _, e := range entries {
		item := model.LedgerItem{LedgerEntry: e}
		if a, ok := assets[e.Ref()]; ok {
			item.Detail = a.Detail()
		} else {
			item.Detail = model.MissingDetail(e.Ref())
		}
		items = append(items, item)
	}
	return items, nil
}

// ListAssets returns the full records of one asset type visible in scope.
func ListAssets(ctx context.Context, db *sql.DB, t model.AssetType, scope policy.Scope) ([]model.AssetRecord, error) {
	if _, err := tableFor(t); err != nil {
		return nil, err
	}

	entries, err := listEntries(ctx, db, scope, LedgerFilter{Type: t})
	if err != nil {
		return nil, err
	}
	assets, err := resolveAssets(ctx, db, entries)
	if err != nil {
		return nil, err
	}

	records := make([]model.AssetRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, model.AssetRecord{Entry: e, Asset: assets[e.Ref()]})
	}
	return records, nil
}

func getEntry(ctx context.Context, q querier, ref model.AssetRef) (*model.LedgerEntry, error) {
	e, err := scanLedgerEntry(q.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM inventario_general
		 WHERE tipo_equipo = ? AND id_registro = ?`,
		string(ref.Type), ref.ID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ledger entry for %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting ledger entry: %w", err)
	}
	return &e, nil
}

// GetLedgerEntry returns the ledger entry of an asset.
func GetLedgerEntry(ctx context.Context, db *sql.DB, ref model.AssetRef) (*model.LedgerEntry, error) {
	if _, err := tableFor(ref.Type); err != nil {
		return nil, err
	}
	return getEntry(ctx, db, ref)
}

// GetAssetRecord returns an asset together with its ledger entry. A ledger
// entry whose asset row is missing yields a record with a nil Asset.
func GetAssetRecord(ctx context.Context, db *sql.DB, ref model.AssetRef) (*model.AssetRecord, error) {
	tbl, err := tableFor(ref.Type)
	if err != nil {
		return nil, err
	}
	entry, err := getEntry(ctx, db, ref)
	if err != nil {
		return nil, err
	}

	rec := &model.AssetRecord{Entry: *entry}
	a, err := tbl.get(ctx, db, ref.ID)
	switch {
	case err == nil:
		rec.Asset = a
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return rec, nil
}

// CreateAsset stores a new asset and its ledger entry in one transaction.
// The entry's status defaults to SinAsignar and its intake date to today.
// On success both a and the returned entry carry their new ids.
func CreateAsset(ctx context.Context, db *sql.DB, a model.Asset, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	tbl, err := tableFor(a.Ref().Type)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if entry.Status == "" {
		entry.Status = model.StatusUnassigned
	}
	if !entry.IntakeDate.Valid() {
		entry.IntakeDate = model.DateOf(time.Now())
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	assetID, err := tbl.insert(ctx, tx, a)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO inventario_general
		 (tipo_equipo, id_registro, estado, id_usuario_responsable, id_area_responsable,
		  id_sucursal_ubicacion, fecha_ingreso, observaciones)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tbl.kind), assetID, string(entry.Status), entry.ResponsibleUser,
		entry.ResponsibleArea, entry.Branch, entry.IntakeDate, entry.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating ledger entry: %w", classify(err))
	}
	ledgerID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting ledger id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing asset creation: %w", err)
	}

	entry.ID = ledgerID
	entry.AssetType = tbl.kind
	entry.AssetID = assetID
	entry.HasPhoto = false
	return &entry, nil
}

// AssetUpdate is a partial update of an asset and its ledger entry.
type AssetUpdate struct {
	Asset  model.AssetPatch
	Ledger model.LedgerPatch
	// Note is recorded with a custody change; empty means the default note.
	Note string
	// Actor is the user making the change.
	Actor *int64
}

// UpdateAsset applies u to the asset at ref in one transaction. When the
// responsible user changes, exactly one history entry is appended and
// returned; otherwise the returned entry is nil.
func UpdateAsset(ctx context.Context, db *sql.DB, ref model.AssetRef, u AssetUpdate) (*model.HistoryEntry, error) {
	tbl, err := tableFor(ref.Type)
	if err != nil {
		return nil, err
	}
	if u.Asset != nil {
		if err := u.Asset.Validate(); err != nil {
			return nil, err
		}
	}
	if err := u.Ledger.Validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tbl.get(ctx, tx, ref.ID); err != nil {
		return nil, err
	}
	entry, err := getEntry(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	if err := tbl.update(ctx, tx, ref.ID, u.Asset); err != nil {
		return nil, err
	}

	set := &setList{}
	setOpt(set, "estado", u.Ledger.Status)
	setOpt(set, "id_usuario_responsable", u.Ledger.ResponsibleUser)
	setOpt(set, "id_area_responsable", u.Ledger.ResponsibleArea)
	setOpt(set, "id_sucursal_ubicacion", u.Ledger.Branch)
	setOpt(set, "fecha_ingreso", u.Ledger.IntakeDate)
	setOpt(set, "observaciones", u.Ledger.Notes)
	if !set.empty() {
		_, err := tx.ExecContext(ctx,
			`UPDATE inventario_general SET `+strings.Join(set.columns, ", ")+` WHERE id_inventario = ?`,
			append(set.args, entry.ID)...,
		)
		if err != nil {
			return nil, fmt.Errorf("updating ledger entry: %w", classify(err))
		}
	}

	var moved *model.HistoryEntry
	if u.Ledger.ResponsibleUser.Set && !model.SameOwner(entry.ResponsibleUser, u.Ledger.ResponsibleUser.Value) {
		note := u.Note
		if note == "" {
			note = model.DefaultCustodyNote
		}
		moved = &model.HistoryEntry{
			AssetType:     ref.Type,
			AssetID:       ref.ID,
			PreviousOwner: entry.ResponsibleUser,
			NewOwner:      u.Ledger.ResponsibleUser.Value,
			Date:          time.Now().UTC(),
			Notes:         note,
			RecordedBy:    u.Actor,
		}
		if err := insertHistory(ctx, tx, moved); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing asset update: %w", err)
	}
	return moved, nil
}

// DeleteAsset removes an asset and its ledger entry together. Custody
// history is kept.
func DeleteAsset(ctx context.Context, db *sql.DB, ref model.AssetRef) error {
	tbl, err := tableFor(ref.Type)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventario_general WHERE tipo_equipo = ? AND id_registro = ?`,
		string(ref.Type), ref.ID,
	); err != nil {
		return fmt.Errorf("deleting ledger entry: %w", err)
	}
	if err := tbl.delete(ctx, tx, ref.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing asset deletion: %w", err)
	}
	return nil
}
