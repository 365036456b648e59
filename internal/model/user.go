package model

import (
	"strings"
	"time"
)

// User is an account that can sign in.
type User struct {
	ID             int64      `json:"id"`
	Login          string     `json:"usuario"`
	Name           string     `json:"nombre"`
	PasswordHash   string     `json:"-"`
	RoleID         int64      `json:"id_rol"`
	BranchID       *int64     `json:"id_sucursal"`
	ActiveBranchID *int64     `json:"sucursal_activa"`
	Active         bool       `json:"activo"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Seeded roles.
const (
	RoleAdministrator int64 = 1
	RoleStandard      int64 = 2
)

// MinPasswordLength is the shortest password accepted on create or change.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateLogin checks a login name.
func ValidateLogin(login string) error {
	if strings.TrimSpace(login) == "" {
		return Invalid("usuario", "required")
	}
	if strings.ContainsAny(login, " \t\n") {
		return Invalid("usuario", "must not contain whitespace")
	}
	return nil
}

// NewUser is the input for creating a user.
type NewUser struct {
	Login    string `json:"usuario"`
	Password string `json:"password"`
	Name     string `json:"nombre"`
	RoleID   int64  `json:"id_rol"`
	BranchID *int64 `json:"id_sucursal"`
}

func (u *NewUser) Validate() error {
	if err := ValidateLogin(u.Login); err != nil {
		return err
	}
	if err := ValidatePassword(u.Password); err != nil {
		return err
	}
	if u.RoleID <= 0 {
		return Invalid("id_rol", "required")
	}
	return nil
}

// UserPatch is a partial update of a user.
type UserPatch struct {
	Login          Optional[string] `json:"usuario"`
	Name           Optional[string] `json:"nombre"`
	RoleID         Optional[int64]  `json:"id_rol"`
	BranchID       Optional[*int64] `json:"id_sucursal"`
	ActiveBranchID Optional[*int64] `json:"sucursal_activa"`
	Active         Optional[bool]   `json:"activo"`
	Password       Optional[string] `json:"password"`
}

func (p *UserPatch) Validate() error {
	if p.Login.Set {
		if err := ValidateLogin(p.Login.Value); err != nil {
			return err
		}
	}
	if p.RoleID.Set && p.RoleID.Value <= 0 {
		return Invalid("id_rol", "must be positive")
	}
	if p.Password.Set {
		if err := ValidatePassword(p.Password.Value); err != nil {
			return err
		}
	}
	return nil
}

// AdminFields lists the present fields that only an administrator may set.
func (p *UserPatch) AdminFields() []string {
	var fields []string
	if p.RoleID.Set {
		fields = append(fields, "id_rol")
	}
	if p.BranchID.Set {
		fields = append(fields, "id_sucursal")
	}
	if p.Active.Set {
		fields = append(fields, "activo")
	}
	return fields
}
