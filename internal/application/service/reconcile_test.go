package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
)

func TestPlanReconciliation(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	itemA, itemB := uuid.New(), uuid.New()
	old := []entity.SaleItem{
		{ID: itemA, ProductID: a, Quantity: 2, UnitPrice: dec("1")},
		{ID: itemB, ProductID: b, Quantity: 3, UnitPrice: dec("2")},
	}
	desired := []PlannedLine{
		{ProductID: a, Quantity: 5, UnitPrice: dec("1")},
		{ProductID: c, Quantity: 1, UnitPrice: dec("4")},
	}

	steps := PlanReconciliation(old, desired)
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}

	if s := steps[0]; s.Action != ReconcileDelete || s.ItemID != itemB || s.StockDelta != 3 {
		t.Fatalf("unexpected delete step %+v", s)
	}
	if s := steps[1]; s.Action != ReconcileUpdate || s.ItemID != itemA || s.OldQuantity != 2 || s.NewQuantity != 5 || s.StockDelta != -3 {
		t.Fatalf("unexpected update step %+v", s)
	}
	if s := steps[2]; s.Action != ReconcileInsert || s.ProductID != c || s.StockDelta != -1 || !s.UnitPrice.Equal(dec("4")) {
		t.Fatalf("unexpected insert step %+v", s)
	}

	decs, incs := stockChanges(steps)
	if decs[a] != 3 || decs[c] != 1 || len(decs) != 2 {
		t.Fatalf("unexpected decrements %v", decs)
	}
	if incs[b] != 3 || len(incs) != 1 {
		t.Fatalf("unexpected increments %v", incs)
	}
}

func TestPlanReconciliationUnchanged(t *testing.T) {
	a := uuid.New()
	old := []entity.SaleItem{{ID: uuid.New(), ProductID: a, Quantity: 2, UnitPrice: dec("1")}}

	steps := PlanReconciliation(old, []PlannedLine{{ProductID: a, Quantity: 2, UnitPrice: dec("1")}})
	if len(steps) != 1 || steps[0].Action != ReconcileUpdate || steps[0].StockDelta != 0 {
		t.Fatalf("unexpected steps %+v", steps)
	}
	decs, incs := stockChanges(steps)
	if len(decs) != 0 || len(incs) != 0 {
		t.Fatalf("expected no stock changes, got %v %v", decs, incs)
	}
}
