package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inventario-ti/inventario/internal/auth"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
	"github.com/inventario-ti/inventario/internal/store"
)

// UsersHandler handles user management endpoints.
type UsersHandler struct {
	DB *sql.DB
}

// liveUser loads a user that has not been deleted.
func (h *UsersHandler) liveUser(r *http.Request, id int64) (*model.User, error) {
	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return user, nil
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(users))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewUser
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoleID == 0 {
		req.RoleID = model.RoleStandard
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req, hash)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user created", "user", caller(r).Login, "new_user", user.Login, "role", user.RoleID)
	message(w, http.StatusCreated, "Usuario creado correctamente", map[string]any{"id": user.ID})
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := caller(r).CanAccessUser(id); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.liveUser(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}. Users may edit their own record;
// id_rol, id_sucursal and activo are reserved for administrators.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := caller(r)
	if err := c.CanAccessUser(id); err != nil {
		writeError(w, r, err)
		return
	}

	var patch model.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := patch.AdminFields(); len(fields) > 0 && !c.Can(policy.ManageUsers) {
		jsonError(w, http.StatusForbidden, "only administrators may change "+strings.Join(fields, ", "))
		return
	}

	target, err := h.liveUser(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if patch.ActiveBranchID.Set {
		if err := c.CanActivateBranch(target, patch.ActiveBranchID.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}

	var hash string
	if patch.Password.Set {
		hash, err = auth.HashPassword(patch.Password.Value)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	user, err := store.UpdateUser(r.Context(), h.DB, id, patch, hash)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user updated", "user", c.Login, "target_user", user.Login)
	message(w, http.StatusOK, "Usuario actualizado correctamente", nil)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c := caller(r)
	if c.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user deleted", "user", c.Login, "deleted_user", id)
	message(w, http.StatusOK, "Usuario eliminado correctamente", nil)
}
