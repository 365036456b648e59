package model

import "strings"

// Consumable is stock bookkeeping for supplies such as toner or cables.
type Consumable struct {
	ID       int64  `json:"id_consumible"`
	Type     string `json:"tipo"`
	Brand    string `json:"marca"`
	Model    string `json:"modelo"`
	Stock    int    `json:"stock_actual"`
	MinStock int    `json:"stock_minimo"`
	BranchID *int64 `json:"id_sucursal_stock"`
	Low      bool   `json:"bajo_minimo"`
}

// BelowMinimum reports whether the stock has dropped under its minimum.
func (c *Consumable) BelowMinimum() bool {
	return c.Stock < c.MinStock
}

func (c *Consumable) Validate() error {
	if strings.TrimSpace(c.Type) == "" {
		return Invalid("tipo", "required")
	}
	if c.Stock < 0 {
		return Invalid("stock_actual", "must not be negative")
	}
	if c.MinStock < 0 {
		return Invalid("stock_minimo", "must not be negative")
	}
	return nil
}

// ConsumablePatch is a partial update of a consumable.
type ConsumablePatch struct {
	Type     Optional[string] `json:"tipo"`
	Brand    Optional[string] `json:"marca"`
	Model    Optional[string] `json:"modelo"`
	Stock    Optional[int]    `json:"stock_actual"`
	MinStock Optional[int]    `json:"stock_minimo"`
	BranchID Optional[*int64] `json:"id_sucursal_stock"`
}

func (p *ConsumablePatch) Validate() error {
	if p.Type.Set && strings.TrimSpace(p.Type.Value) == "" {
		return Invalid("tipo", "required")
	}
	if p.Stock.Set && p.Stock.Value < 0 {
		return Invalid("stock_actual", "must not be negative")
	}
	if p.MinStock.Set && p.MinStock.Value < 0 {
		return Invalid("stock_minimo", "must not be negative")
	}
	return nil
}
