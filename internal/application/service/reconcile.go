package service

import (
	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type ReconcileAction string

const (
	ReconcileDelete ReconcileAction = "delete"
	ReconcileUpdate ReconcileAction = "update"
	ReconcileInsert ReconcileAction = "insert"
)

// PlannedLine is the desired state of one product in an edited sale.
// UnitPrice is in the base currency.
type PlannedLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// ReconcileStep is one item write plus the stock change it implies.
// StockDelta is applied to the product: positive returns units to stock,
// negative takes them.
type ReconcileStep struct {
	Action      ReconcileAction `json:"action"`
	ProductID   uuid.UUID       `json:"product_id"`
	ItemID      uuid.UUID       `json:"item_id,omitempty"`
	OldQuantity int             `json:"old_quantity"`
	NewQuantity int             `json:"new_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	StockDelta  int             `json:"stock_delta"`
}

// PlanReconciliation diffs persisted items against the desired lines.
// Removed products come first in persisted order, then the desired lines in
// their given order.
func PlanReconciliation(old []entity.SaleItem, desired []PlannedLine) []ReconcileStep {
	oldByProduct := make(map[uuid.UUID]entity.SaleItem, len(old))
	for _, item := range old {
		oldByProduct[item.ProductID] = item
	}
	wanted := make(map[uuid.UUID]struct{}, len(desired))
	for _, line := range desired {
		wanted[line.ProductID] = struct{}{}
	}

	steps := make([]ReconcileStep, 0, len(old)+len(desired))

	for _, item := range old {
		if _, keep := wanted[item.ProductID]; keep {
			continue
		}
		steps = append(steps, ReconcileStep{
			Action:      ReconcileDelete,
			ProductID:   item.ProductID,
			ItemID:      item.ID,
			OldQuantity: item.Quantity,
			UnitPrice:   item.UnitPrice,
			StockDelta:  item.Quantity,
		})
	}

	for _, line := range desired {
		if item, ok := oldByProduct[line.ProductID]; ok {
			steps = append(steps, ReconcileStep{
				Action:      ReconcileUpdate,
				ProductID:   line.ProductID,
				ItemID:      item.ID,
				OldQuantity: item.Quantity,
				NewQuantity: line.Quantity,
				UnitPrice:   line.UnitPrice,
				StockDelta:  item.Quantity - line.Quantity,
			})
			continue
		}
		steps = append(steps, ReconcileStep{
			Action:      ReconcileInsert,
			ProductID:   line.ProductID,
			NewQuantity: line.Quantity,
			UnitPrice:   line.UnitPrice,
			StockDelta:  -line.Quantity,
		})
	}

	return steps
}

// stockChanges splits a plan into per-product decrements and increments.
func stockChanges(steps []ReconcileStep) (decrements, increments map[uuid.UUID]int) {
	decrements = make(map[uuid.UUID]int)
	increments = make(map[uuid.UUID]int)
	for _, step := range steps {
		switch {
		case step.StockDelta < 0:
			decrements[step.ProductID] += -step.StockDelta
		case step.StockDelta > 0:
			increments[step.ProductID] += step.StockDelta
		}
	}
	return decrements, increments
}
