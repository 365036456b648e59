// Package policy decides what an authenticated caller may do. Every handler
// builds a Caller from the user row and asks it, instead of comparing role
// ids inline.
package policy

import (
	"errors"

	"github.com/inventario-ti/inventario/internal/model"
)

// ErrForbidden is returned when the caller lacks the role or branch scope
// for an operation.
var ErrForbidden = errors.New("forbidden")

// Capability is a right that is granted per role.
type Capability int

const (
	// ManageAssets covers creating, editing and deleting computers, phones
	// and printers, and uploading their photos.
	ManageAssets Capability = iota
	ManageConsumables
	ManageUsers
	ManageCatalog
	// RecordHistory allows appending custody history by hand.
	RecordHistory
	// AllBranches lifts the active-branch restriction on reads.
	AllBranches
)

var capabilityNames = map[Capability]string{
	ManageAssets:      "manage assets",
	ManageConsumables: "manage consumables",
	ManageUsers:       "manage users",
	ManageCatalog:     "manage catalog",
	RecordHistory:     "record history",
	AllBranches:       "access all branches",
}

func (c Capability) String() string {
	return capabilityNames[c]
}

// grants maps a role id to its capabilities. Roles that are not listed hold
// none.
var grants = map[int64][]Capability{
	model.RoleAdministrator: {ManageAssets, ManageConsumables, ManageUsers, ManageCatalog, RecordHistory, AllBranches},
}

// Caller is the authenticated user an operation runs on behalf of.
type Caller struct {
	UserID       int64
	Login        string
	RoleID       int64
	HomeBranch   *int64
	ActiveBranch *int64
}

// NewCaller builds a Caller from a user row.
func NewCaller(u *model.User) Caller {
	return Caller{
		UserID:       u.ID,
		Login:        u.Login,
		RoleID:       u.RoleID,
		HomeBranch:   u.BranchID,
		ActiveBranch: u.ActiveBranchID,
	}
}

// Can reports whether the caller's role holds capability c.
func (c Caller) Can(capability Capability) bool {
	for _, granted := range grants[c.RoleID] {
		if granted == capability {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden unless the caller holds capability c.
func (c Caller) Require(capability Capability) error {
	if !c.Can(capability) {
		return ErrForbidden
	}
	return nil
}

// IsAdmin reports whether the caller is an administrator.
func (c Caller) IsAdmin() bool {
	return c.RoleID == model.RoleAdministrator
}

// Scope is the set of branches a caller can read. All means unlimited;
// otherwise only Branch is visible, and a nil Branch means nothing is.
type Scope struct {
	All    bool
	Branch *int64
}

// Scope returns the branch scope for list operations.
func (c Caller) Scope() Scope {
	if c.Can(AllBranches) {
		return Scope{All: true}
	}
	return Scope{Branch: c.ActiveBranch}
}

// Includes reports whether a record located at branch is inside the scope.
// Records without a branch are only visible to an unlimited scope.
func (s Scope) Includes(branch *int64) bool {
	if s.All {
		return true
	}
	return s.Branch != nil && branch != nil && *s.Branch == *branch
}

// Empty reports whether the scope can never include anything.
func (s Scope) Empty() bool {
	return !s.All && s.Branch == nil
}

// CanSeeBranch returns ErrForbidden unless a record at branch is visible.
func (c Caller) CanSeeBranch(branch *int64) error {
	if !c.Scope().Includes(branch) {
		return ErrForbidden
	}
	return nil
}

// CanAccessUser allows a caller to read or update its own record, and an
// administrator to read or update any.
func (c Caller) CanAccessUser(userID int64) error {
	if c.UserID == userID || c.Can(ManageUsers) {
		return nil
	}
	return ErrForbidden
}

// CanActivateBranch decides whether target's active branch may be set to
// branch: only its own home branch, unless the caller is an administrator.
func (c Caller) CanActivateBranch(target *model.User, branch *int64) error {
	if c.Can(ManageUsers) {
		return nil
	}
	if c.UserID != target.ID {
		return ErrForbidden
	}
	if branch == nil || target.BranchID == nil || *branch != *target.BranchID {
		return ErrForbidden
	}
	return nil
}
