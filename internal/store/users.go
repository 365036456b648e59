package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inventario-ti/inventario/internal/model"
)

const userColumns = `id, usuario, password_hash, nombre, id_rol, id_sucursal,
	sucursal_activa, activo, created_at, deleted_at`

func scanUser(sc scanner) (*model.User, error) {
	u := &model.User{}
	err := sc.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Name, &u.RoleID, &u.BranchID,
		&u.ActiveBranchID, &u.Active, &u.CreatedAt, &u.DeletedAt)
	return u, err
}

// CreateUser creates a new active user whose active branch is its home
// branch.
func CreateUser(ctx context.Context, db *sql.DB, nu model.NewUser, passwordHash string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO usuarios (usuario, password_hash, nombre, id_rol, id_sucursal, sucursal_activa, activo)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nu.Login, passwordHash, nu.Name, nu.RoleID, nu.BranchID, nu.BranchID, true,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, including soft-deleted users.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByLogin returns a user by login name (including soft-deleted for
// auth checks).
func GetUserByLogin(ctx context.Context, db *sql.DB, login string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE usuario = ?`, login,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", login, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by login: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of users ever created.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUser applies the present fields of p in a single statement. The
// plaintext p.Password is ignored; a non-empty passwordHash replaces the
// stored hash alongside the other fields.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, p model.UserPatch, passwordHash string) (*model.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	set := &setList{}
	setOpt(set, "usuario", p.Login)
	setOpt(set, "nombre", p.Name)
	setOpt(set, "id_rol", p.RoleID)
	setOpt(set, "id_sucursal", p.BranchID)
	setOpt(set, "sucursal_activa", p.ActiveBranchID)
	setOpt(set, "activo", p.Active)
	if passwordHash != "" {
		set.add("password_hash", passwordHash)
	}

	if !set.empty() {
		result, err := db.ExecContext(ctx,
			`UPDATE usuarios SET `+strings.Join(set.columns, ", ")+` WHERE id = ? AND deleted_at IS NULL`,
			append(set.args, id)...,
		)
		if err != nil {
			return nil, fmt.Errorf("updating user: %w", classify(err))
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
	}

	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if u.DeletedAt != nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

// SetActiveBranch switches the branch a user is working in.
func SetActiveBranch(ctx context.Context, db *sql.DB, id int64, branch *int64) error {
	_, err := UpdateUser(ctx, db, id, model.UserPatch{ActiveBranchID: model.Some(branch)}, "")
	return err
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE usuarios SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteUser soft-deletes a user. History rows keep referring to it and its
// login stays taken.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE usuarios SET deleted_at = CURRENT_TIMESTAMP, activo = ? WHERE id = ? AND deleted_at IS NULL`,
		false, id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
