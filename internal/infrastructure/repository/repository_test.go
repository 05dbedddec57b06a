package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/internal/infrastructure/database"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB("file:"+t.Name()+"?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, repo interface {
	Create(context.Context, *entity.Product) error
}, code string, qty int) *entity.Product {
	t.Helper()
	p := &entity.Product{Name: code, Code: code, Quantity: qty, SellingPrice: decimal.NewFromInt(1)}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestAtomicDecrementBatch(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	a := seedProduct(t, repo, "A", 5)
	b := seedProduct(t, repo, "B", 1)

	failed, err := repo.AtomicDecrementBatch(ctx, map[uuid.UUID]int{a.ID: 2, b.ID: 1})
	if err != nil || len(failed) != 0 {
		t.Fatalf("expected success, got failed=%v err=%v", failed, err)
	}

	stocks, _ := repo.GetStocks(ctx, []uuid.UUID{a.ID, b.ID})
	if stocks[a.ID] != 3 || stocks[b.ID] != 0 {
		t.Fatalf("unexpected stocks: %v", stocks)
	}
}

func TestAtomicDecrementBatchRollsBackWhenShort(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	a := seedProduct(t, repo, "A", 5)
	b := seedProduct(t, repo, "B", 1)

	failed, err := repo.AtomicDecrementBatch(ctx, map[uuid.UUID]int{a.ID: 2, b.ID: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 1 || failed[0] != b.ID {
		t.Fatalf("expected B to fail, got %v", failed)
	}

	if qty, _, _ := repo.GetStock(ctx, a.ID); qty != 5 {
		t.Fatalf("A should be untouched, got %d", qty)
	}
}

func TestGetStockMissingProduct(t *testing.T) {
	repo := NewProductRepository(setupDB(t))
	_, found, err := repo.GetStock(context.Background(), uuid.New())
	if err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}
}

func TestSetStockOverwritesQuantity(t *testing.T) {
	repo := NewProductRepository(setupDB(t))
	ctx := context.Background()
	a := seedProduct(t, repo, "A", 5)

	if err := repo.SetStock(ctx, a.ID, 12); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if qty, _, _ := repo.GetStock(ctx, a.ID); qty != 12 {
		t.Fatalf("expected 12, got %d", qty)
	}
}

func TestTransactorRollsBack(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	a := seedProduct(t, repo, "A", 5)
	boom := errors.New("boom")

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.AtomicIncrementBatch(ctx, map[uuid.UUID]int{a.ID: 10}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if qty, _, _ := repo.GetStock(ctx, a.ID); qty != 5 {
		t.Fatalf("increment should have rolled back, got %d", qty)
	}
}

func TestProductListSearchIsCaseInsensitive(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	seedProduct(t, repo, "Blue-Soap", 1)
	seedProduct(t, repo, "Rice", 1)

	items, total, err := repo.List(ctx, &domainRepo.ProductFilterParams{
		Pagination: pagination.DefaultPagination(),
		Search:     "soap",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Code != "Blue-Soap" {
		t.Fatalf("unexpected result total=%d items=%v", total, items)
	}
}

func TestExchangeRateGetLatest(t *testing.T) {
	db := setupDB(t)
	repo := NewExchangeRateRepository(db)
	ctx := context.Background()

	if latest, err := repo.GetLatest(ctx); err != nil || latest != nil {
		t.Fatalf("expected no rate, got %v %v", latest, err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []int64{30, 35} {
		rate := &entity.ExchangeRate{Rate: decimal.NewFromInt(r), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Create(ctx, rate); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	latest, err := repo.GetLatest(ctx)
	if err != nil || latest == nil || !latest.Rate.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected latest 35, got %v %v", latest, err)
	}

	list, total, err := repo.List(ctx, pagination.DefaultPagination())
	if err != nil || total != 2 || !list[0].Rate.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected newest first, got %v (total %d) %v", list, total, err)
	}
}

func TestCashBalance(t *testing.T) {
	db := setupDB(t)
	repo := NewCashMovementRepository(db)
	ctx := context.Background()
	op := uuid.New()

	for _, amt := range []string{"10.5", "-3.25", "0.000001"} {
		m := &entity.CashMovement{Type: "income", Amount: decimal.RequireFromString(amt), OperatorID: op, CreatedAt: time.Now()}
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	balance, err := repo.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("7.250001")) {
		t.Fatalf("expected 7.250001, got %s", balance)
	}
}
