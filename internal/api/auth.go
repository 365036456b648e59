package api

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/inventario-ti/inventario/internal/auth"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
	"github.com/inventario-ti/inventario/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB     *sql.DB
	Tokens *auth.Issuer
}

type loginRequest struct {
	Login    string `json:"usuario"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"usuario"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type switchBranchRequest struct {
	BranchID *int64 `json:"id_sucursal"`
}

// caller returns the authenticated caller. Handlers behind AuthMiddleware
// always have one; the zero Caller holds no rights.
func caller(r *http.Request) policy.Caller {
	c, _ := GetCaller(r.Context())
	return c
}

// authenticate checks a login and password against the stored user.
func (h *AuthHandler) authenticate(r *http.Request, login, password string) (*model.User, error) {
	user, err := store.GetUserByLogin(r.Context(), h.DB, login)
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, auth.ErrAccountDisabled
	}
	return user, nil
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Login == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "usuario and password required")
		return
	}

	user, err := h.authenticate(r, req.Login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDisabled) {
			slog.Warn("login failed", "user", req.Login, "remote", r.RemoteAddr, "reason", err)
		}
		writeError(w, r, err)
		return
	}

	pair, err := h.Tokens.IssuePair(auth.Subject{UserID: user.ID, Login: user.Login, RoleID: user.RoleID})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user", user.Login, "role", user.RoleID)
	jsonResponse(w, http.StatusOK, loginResponse{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		User:         user,
	})
}

// Refresh handles POST /api/auth/refresh. The bearer token must be a
// refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := bearerToken(r)
	if !ok {
		jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
		return
	}
	claims, err := h.Tokens.Verify(r.Context(), raw, auth.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if err != nil || user.DeletedAt != nil || !user.Active {
		jsonError(w, http.StatusUnauthorized, "account is not active")
		return
	}

	access, err := h.Tokens.Issue(auth.AccessToken, auth.Subject{UserID: user.ID, Login: user.Login, RoleID: user.RoleID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"access_token": access})
}

// Logout handles POST /api/auth/logout by revoking the presented access
// token and, when the body carries one, the session's refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req logoutRequest
	if len(bytes.TrimSpace(data)) > 0 {
		if err := unmarshalBody(data, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	var refresh *auth.Claims
	if req.RefreshToken != "" {
		refresh, err = h.Tokens.Verify(r.Context(), req.RefreshToken, auth.RefreshToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if refresh.UserID != claims.UserID {
			writeError(w, r, policy.ErrForbidden)
			return
		}
	}

	if err := h.Tokens.Revoke(r.Context(), claims); err != nil {
		writeError(w, r, err)
		return
	}
	if refresh != nil {
		if err := h.Tokens.Revoke(r.Context(), refresh); err != nil {
			writeError(w, r, err)
			return
		}
	}
	slog.Info("user logged out", "user", claims.Login)
	message(w, http.StatusOK, "Sesión cerrada correctamente", nil)
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// SwitchBranch handles POST /api/auth/branch.
func (h *AuthHandler) SwitchBranch(w http.ResponseWriter, r *http.Request) {
	var req switchBranchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.BranchID == nil {
		jsonError(w, http.StatusBadRequest, "id_sucursal required")
		return
	}

	c := caller(r)
	user, err := store.GetUser(r.Context(), h.DB, c.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.CanActivateBranch(user, req.BranchID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.SetActiveBranch(r.Context(), h.DB, user.ID, req.BranchID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("active branch changed", "user", user.Login, "branch", *req.BranchID)
	message(w, http.StatusOK, "Sucursal activa actualizada correctamente", nil)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			jsonError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user changed own password", "user", user.Login)
	message(w, http.StatusOK, "Contraseña actualizada correctamente", nil)
}
