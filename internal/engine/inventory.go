package engine

import (
	"context"
	"fmt"

	"github.com/gurutech/guru-erp/internal/db"
)

// StockWarning is a non-fatal signal that a consumption request exceeded
// the available stock. The decrement is clamped at zero.
type StockWarning struct {
	PartID    string `json:"partId"`
	PartName  string `json:"partName"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (w StockWarning) String() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", w.PartName, w.Requested, w.Available)
}

// Inventory adjusts part stock levels when tickets consume parts.
type Inventory struct {
	parts db.PartCollection
}

// NewInventory creates the inventory adjustment logic on top of a part store.
func NewInventory(parts db.PartCollection) *Inventory {
	return &Inventory{parts: parts}
}

// Consume decrements a part's stock by the consumed quantity, flooring
// at zero. When the request exceeds availability the clamped decrement
// still succeeds and a warning is returned instead of an error.
func (inv *Inventory) Consume(ctx context.Context, partID string, quantity int) (*StockWarning, error) {
	part, err := inv.parts.FindPartByID(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("consume part %s: %w", partID, err)
	}

	remaining := part.StockQuantity - quantity
	var warning *StockWarning
	if remaining < 0 {
		warning = &StockWarning{
			PartID:    part.ID,
			PartName:  part.Name,
			Requested: quantity,
			Available: part.StockQuantity,
		}
		remaining = 0
	}

	if err := inv.parts.SetStockQuantity(ctx, partID, remaining); err != nil {
		return nil, fmt.Errorf("adjust stock for %s: %w", partID, err)
	}
	return warning, nil
}
