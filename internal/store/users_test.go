package store

import (
	"context"
	"errors"
	"testing"

	"github.com/inventario-ti/inventario/internal/db"
	"github.com/inventario-ti/inventario/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")

	user := mustUser(t, database, "testuser", model.RoleStandard, &branch)
	if user.Login != "testuser" {
		t.Errorf("expected login 'testuser', got %q", user.Login)
	}
	if !user.Active {
		t.Error("expected new user to be active")
	}
	if user.ActiveBranchID == nil || *user.ActiveBranchID != branch {
		t.Errorf("expected active branch %d, got %v", branch, user.ActiveBranchID)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Login != "testuser" {
		t.Errorf("expected login 'testuser', got %q", got.Login)
	}

	if _, err := GetUser(ctx, database, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateLogin(t *testing.T) {
	database := db.NewTestDB(t)
	mustUser(t, database, "alice", model.RoleStandard, nil)

	_, err := CreateUser(context.Background(), database, model.NewUser{
		Login: "alice", Password: "password123", RoleID: model.RoleStandard,
	}, "hash")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateUserUnknownRole(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := CreateUser(context.Background(), database, model.NewUser{
		Login: "bob", Password: "password123", RoleID: 42,
	}, "hash")
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestGetUserByLogin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustUser(t, database, "alice", model.RoleAdministrator, nil)

	user, err := GetUserByLogin(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin: %v", err)
	}
	if user.Login != "alice" {
		t.Errorf("expected 'alice', got %q", user.Login)
	}

	if _, err := GetUserByLogin(ctx, database, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	home := mustBranch(t, database, "Central")
	other := mustBranch(t, database, "Norte")

	user := mustUser(t, database, "carla", model.RoleStandard, &home)

	updated, err := UpdateUser(ctx, database, user.ID, model.UserPatch{
		Name: model.Some("Carla Rojas"),
	}, "")
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Carla Rojas" {
		t.Errorf("expected name updated, got %q", updated.Name)
	}
	if updated.Login != "carla" || updated.BranchID == nil || *updated.BranchID != home {
		t.Errorf("absent fields changed: %+v", updated)
	}

	if err := SetActiveBranch(ctx, database, user.ID, &other); err != nil {
		t.Fatalf("SetActiveBranch: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.ActiveBranchID == nil || *got.ActiveBranchID != other {
		t.Errorf("expected active branch %d, got %v", other, got.ActiveBranchID)
	}

	cleared, err := UpdateUser(ctx, database, user.ID, model.UserPatch{
		BranchID: model.Some[*int64](nil),
	}, "")
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if cleared.BranchID != nil {
		t.Errorf("expected home branch cleared, got %v", *cleared.BranchID)
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "deleteme", model.RoleStandard, nil)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.DeletedAt == nil || got.Active {
		t.Errorf("expected soft-deleted inactive user, got %+v", got)
	}

	if err := DeleteUser(ctx, database, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := UpdateUser(ctx, database, user.ID, model.UserPatch{Name: model.Some("x")}, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating deleted user, got %v", err)
	}
}

func TestUpdateUserWithPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "pedro", model.RoleStandard, nil)
	mustUser(t, database, "taken", model.RoleStandard, nil)

	updated, err := UpdateUser(ctx, database, user.ID, model.UserPatch{
		Name:     model.Some("Pedro Soto"),
		Password: model.Some("newpassword"),
	}, "newhash")
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Pedro Soto" || updated.PasswordHash != "newhash" {
		t.Errorf("expected name and hash updated, got %q / %q", updated.Name, updated.PasswordHash)
	}

	// A failing update leaves the password untouched too.
	_, err = UpdateUser(ctx, database, user.ID, model.UserPatch{
		Login:    model.Some("taken"),
		Password: model.Some("otherpassword"),
	}, "otherhash")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" || got.Login != "pedro" {
		t.Errorf("expected user unchanged after conflict, got login %q hash %q", got.Login, got.PasswordHash)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "pwuser", model.RoleStandard, nil)
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}
