package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/config"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/internal/infrastructure/database"
	"github.com/sangkips/duka-pos/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	products  domainRepo.ProductRepository
	saleRepo  domainRepo.SaleRepository
	itemRepo  domainRepo.SaleItemRepository
	rateRepo  domainRepo.ExchangeRateRepository
	cashRepo  domainRepo.CashMovementRepository
	moveRepo  domainRepo.StockMovementRepository
	productSv *ProductService
	rates     *ExchangeRateService
	customers *CustomerService
	sales     *SaleService
	operator  *entity.User
	standard  *entity.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewSQLiteDB("file:"+name+"?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedDefaultData(db, config.AdminConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	f := &fixture{
		db:       db,
		products: repository.NewProductRepository(db),
		saleRepo: repository.NewSaleRepository(db),
		itemRepo: repository.NewSaleItemRepository(db),
		rateRepo: repository.NewExchangeRateRepository(db),
		cashRepo: repository.NewCashMovementRepository(db),
		moveRepo: repository.NewStockMovementRepository(db),
	}
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)
	tx := repository.NewTransactor(db)

	f.productSv = NewProductService(f.products, f.moveRepo, tx)
	f.rates = NewExchangeRateService(f.rateRepo, nil, time.Minute)
	f.customers = NewCustomerService(customerRepo)
	f.sales = NewSaleService(tx, SaleRepositories{
		Sales:     f.saleRepo,
		SaleItems: f.itemRepo,
		Products:  f.products,
		Customers: customerRepo,
		Users:     userRepo,
		Movements: f.moveRepo,
		Cash:      f.cashRepo,
	}, f.rates, f.productSv, enum.NewPaymentMethodSet([]string{"cash", "card"}), ReceiptOptions{
		StoreName:      "Test Store",
		BaseCurrency:   "USD",
		QuotedCurrency: "VES",
	})

	f.operator = &entity.User{Name: "Cashier", Email: "cashier@example.com", Password: "x", Role: enum.RoleCashier}
	if err := userRepo.Create(context.Background(), f.operator); err != nil {
		t.Fatalf("create operator: %v", err)
	}
	f.standard, err = customerRepo.GetStandard(context.Background())
	if err != nil || f.standard == nil {
		t.Fatalf("standard customer: %v", err)
	}
	return f
}

func (f *fixture) setRate(t *testing.T, rate string) {
	t.Helper()
	if _, err := f.rates.Create(context.Background(), &CreateExchangeRateInput{
		Rate:       decimal.RequireFromString(rate),
		OperatorID: f.operator.ID,
	}); err != nil {
		t.Fatalf("create rate: %v", err)
	}
}

func (f *fixture) product(t *testing.T, code string, qty int, price string) *entity.Product {
	t.Helper()
	p := &entity.Product{Name: code, Code: code, Quantity: qty, SellingPrice: decimal.RequireFromString(price)}
	if err := f.products.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	qty, found, err := f.products.GetStock(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("get stock: found=%v err=%v", found, err)
	}
	return qty
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
