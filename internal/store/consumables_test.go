package store

import (
	"context"
	"errors"
	"testing"

	"github.com/inventario-ti/inventario/internal/db"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
)

func TestConsumableLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")

	c, err := CreateConsumable(ctx, database, model.Consumable{
		Type: "Toner", Brand: "HP", Model: "85A", Stock: 5, MinStock: 2, BranchID: &branch,
	})
	if err != nil {
		t.Fatalf("CreateConsumable: %v", err)
	}
	if c.Low {
		t.Error("expected stock above minimum")
	}

	updated, err := UpdateConsumable(ctx, database, c.ID, model.ConsumablePatch{Stock: model.Some(1)})
	if err != nil {
		t.Fatalf("UpdateConsumable: %v", err)
	}
	if updated.Stock != 1 || !updated.Low {
		t.Errorf("expected low stock of 1, got %+v", updated)
	}
	if updated.Brand != "HP" || updated.MinStock != 2 {
		t.Errorf("absent fields changed: %+v", updated)
	}

	var verr *model.ValidationError
	if _, err := UpdateConsumable(ctx, database, c.ID, model.ConsumablePatch{Stock: model.Some(-1)}); !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}

	if err := DeleteConsumable(ctx, database, c.ID); err != nil {
		t.Fatalf("DeleteConsumable: %v", err)
	}
	if _, err := GetConsumable(ctx, database, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := UpdateConsumable(ctx, database, c.ID, model.ConsumablePatch{Stock: model.Some(3)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListConsumables(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	b1 := mustBranch(t, database, "Uno")
	b2 := mustBranch(t, database, "Dos")

	stock := []model.Consumable{
		{Type: "Toner", Stock: 0, MinStock: 1, BranchID: &b1},
		{Type: "Cable HDMI", Stock: 10, MinStock: 2, BranchID: &b1},
		{Type: "Mouse", Stock: 1, MinStock: 3, BranchID: &b2},
	}
	for _, c := range stock {
		if _, err := CreateConsumable(ctx, database, c); err != nil {
			t.Fatalf("CreateConsumable: %v", err)
		}
	}

	tests := []struct {
		name   string
		scope  policy.Scope
		filter ConsumableFilter
		want   int
	}{
		{"all", policy.Scope{All: true}, ConsumableFilter{}, 3},
		{"all low", policy.Scope{All: true}, ConsumableFilter{LowOnly: true}, 2},
		{"branch", policy.Scope{Branch: &b1}, ConsumableFilter{}, 2},
		{"branch low", policy.Scope{Branch: &b1}, ConsumableFilter{LowOnly: true}, 1},
		{"no branch", policy.Scope{}, ConsumableFilter{}, 0},
	}
	for _, tt := range tests {
		got, err := ListConsumables(ctx, database, tt.scope, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListConsumables: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: expected %d consumables, got %d", tt.name, tt.want, len(got))
		}
	}
}
