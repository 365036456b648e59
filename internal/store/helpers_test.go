package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/inventario-ti/inventario/internal/model"
)

func ptr(v int64) *int64 { return &v }

func mustBranch(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	b, err := CreateBranch(context.Background(), database, model.Branch{Name: name})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	return b.ID
}

func mustUser(t *testing.T, database *sql.DB, login string, role int64, branch *int64) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, model.NewUser{
		Login:    login,
		Password: "password123",
		Name:     login,
		RoleID:   role,
		BranchID: branch,
	}, "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func mustComputer(t *testing.T, database *sql.DB, code string, branch *int64) (*model.Computer, *model.LedgerEntry) {
	t.Helper()
	c := &model.Computer{Code: code, Brand: "Dell", Model: "Latitude", Processor: "i5", RAM: "16GB"}
	entry, err := CreateAsset(context.Background(), database, c, model.LedgerEntry{Branch: branch})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	return c, entry
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
