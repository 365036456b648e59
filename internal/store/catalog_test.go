package store

import (
	"context"
	"errors"
	"testing"

	"github.com/inventario-ti/inventario/internal/db"
	"github.com/inventario-ti/inventario/internal/model"
)

func TestSeededRoles(t *testing.T) {
	database := db.NewTestDB(t)

	roles, err := ListRoles(context.Background(), database)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 seeded roles, got %d", len(roles))
	}
	if roles[0].ID != model.RoleAdministrator || roles[1].ID != model.RoleStandard {
		t.Errorf("unexpected roles: %+v", roles)
	}

	// Applying the schema again must not duplicate them.
	if err := db.EnsureSchema(database, db.DriverSQLite); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	roles, _ = ListRoles(context.Background(), database)
	if len(roles) != 2 {
		t.Errorf("expected 2 roles after re-applying schema, got %d", len(roles))
	}
}

func TestBranchesAndAreas(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateBranch(ctx, database, model.Branch{Name: "Central", Region: "Metropolitana"}); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	branches, err := ListBranches(ctx, database)
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if len(branches) != 1 || branches[0].Region != "Metropolitana" {
		t.Errorf("unexpected branches: %+v", branches)
	}

	area, err := CreateArea(ctx, database, model.Area{Name: "Soporte"})
	if err != nil {
		t.Fatalf("CreateArea: %v", err)
	}
	areas, _ := ListAreas(ctx, database)
	if len(areas) != 1 || areas[0].ID != area.ID {
		t.Errorf("unexpected areas: %+v", areas)
	}

	var verr *model.ValidationError
	if _, err := CreateArea(ctx, database, model.Area{}); !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := CreateBranch(ctx, database, model.Branch{Name: " "}); !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}
