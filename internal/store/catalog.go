package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inventario-ti/inventario/internal/model"
)

// ListRoles returns all roles.
func ListRoles(ctx context.Context, db *sql.DB) ([]model.Role, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id_rol, nombre, descripcion FROM roles ORDER BY id_rol`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var r model.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// CreateBranch creates a branch office.
func CreateBranch(ctx context.Context, db *sql.DB, b model.Branch) (*model.Branch, error) {
	if strings.TrimSpace(b.Name) == "" {
		return nil, model.Invalid("nombre_sucursal", "required")
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO sucursales (nombre_sucursal, direccion, region, telefono_contacto)
		 VALUES (?, ?, ?, ?)`,
		b.Name, b.Address, b.Region, b.Phone,
	)
	if err != nil {
		return nil, fmt.Errorf("creating branch: %w", classify(err))
	}
	b.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting branch id: %w", err)
	}
	return &b, nil
}

// ListBranches returns all branches.
func ListBranches(ctx context.Context, db *sql.DB) ([]model.Branch, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id_sucursal, nombre_sucursal, direccion, region, telefono_contacto
		 FROM sucursales ORDER BY id_sucursal`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []model.Branch
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Region, &b.Phone); err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// CreateArea creates an organisational area.
func CreateArea(ctx context.Context, db *sql.DB, a model.Area) (*model.Area, error) {
	if strings.TrimSpace(a.Name) == "" {
		return nil, model.Invalid("nombre_area", "required")
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO areas (nombre_area) VALUES (?)`, a.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating area: %w", classify(err))
	}
	a.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting area id: %w", err)
	}
	return &a, nil
}

// ListAreas returns all areas.
func ListAreas(ctx context.Context, db *sql.DB) ([]model.Area, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id_area, nombre_area FROM areas ORDER BY id_area`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	defer rows.Close()

	var areas []model.Area
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scanning area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
