package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
)

const consumableColumns = `id_consumible, tipo, COALESCE(marca, ''), COALESCE(modelo, ''),
	stock_actual, stock_minimo, id_sucursal_stock`

func scanConsumable(sc scanner) (*model.Consumable, error) {
	c := &model.Consumable{}
	err := sc.Scan(&c.ID, &c.Type, &c.Brand, &c.Model, &c.Stock, &c.MinStock, &c.BranchID)
	c.Low = c.BelowMinimum()
	return c, err
}

// ConsumableFilter narrows a consumable listing.
type ConsumableFilter struct {
	// LowOnly keeps only consumables whose stock is under the minimum.
	LowOnly bool
}

// ListConsumables returns the consumables stocked in scope.
func ListConsumables(ctx context.Context, db *sql.DB, scope policy.Scope, filter ConsumableFilter) ([]model.Consumable, error) {
	cond, args, ok := scopeCondition(scope, "id_sucursal_stock")
	if !ok {
		return nil, nil
	}
	var where []string
	if cond != "" {
		where = append(where, cond)
	}
	if filter.LowOnly {
		where = append(where, "stock_actual < stock_minimo")
	}

	query := `SELECT ` + consumableColumns + ` FROM consumibles`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id_consumible`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing consumables: %w", err)
	}
	defer rows.Close()

	var consumables []model.Consumable
	for rows.Next() {
		c, err := scanConsumable(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning consumable: %w", err)
		}
		consumables = append(consumables, *c)
	}
	return consumables, rows.Err()
}

// GetConsumable returns a consumable by ID.
func GetConsumable(ctx context.Context, db *sql.DB, id int64) (*model.Consumable, error) {
	c, err := scanConsumable(db.QueryRowContext(ctx,
		`SELECT `+consumableColumns+` FROM consumibles WHERE id_consumible = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("consumable %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting consumable: %w", err)
	}
	return c, nil
}

// CreateConsumable creates a consumable.
func CreateConsumable(ctx context.Context, db *sql.DB, c model.Consumable) (*model.Consumable, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO consumibles (tipo, marca, modelo, stock_actual, stock_minimo, id_sucursal_stock)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Type, c.Brand, c.Model, c.Stock, c.MinStock, c.BranchID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating consumable: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting consumable id: %w", err)
	}
	return GetConsumable(ctx, db, id)
}

// UpdateConsumable applies the present fields of p.
func UpdateConsumable(ctx context.Context, db *sql.DB, id int64, p model.ConsumablePatch) (*model.Consumable, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	set := &setList{}
	setOpt(set, "tipo", p.Type)
	setOpt(set, "marca", p.Brand)
	setOpt(set, "modelo", p.Model)
	setOpt(set, "stock_actual", p.Stock)
	setOpt(set, "stock_minimo", p.MinStock)
	setOpt(set, "id_sucursal_stock", p.BranchID)

	if !set.empty() {
		result, err := db.ExecContext(ctx,
			`UPDATE consumibles SET `+strings.Join(set.columns, ", ")+` WHERE id_consumible = ?`,
			append(set.args, id)...,
		)
		if err != nil {
			return nil, fmt.Errorf("updating consumable: %w", classify(err))
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("consumable %d: %w", id, ErrNotFound)
		}
	}
	return GetConsumable(ctx, db, id)
}

// DeleteConsumable deletes a consumable.
func DeleteConsumable(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM consumibles WHERE id_consumible = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting consumable: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting consumable: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("consumable %d: %w", id, ErrNotFound)
	}
	return nil
}
