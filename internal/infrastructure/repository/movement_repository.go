package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stockMovementRepository struct {
	db *gorm.DB
}

// NewStockMovementRepository creates a new stock movement repository
func NewStockMovementRepository(db *gorm.DB) domainRepo.StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateBatch(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&movements).Error
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, params *pagination.PaginationParams) ([]entity.StockMovement, int64, error) {
	var movements []entity.StockMovement
	var total int64

	query := conn(ctx, r.db).Model(&entity.StockMovement{}).Where("product_id = ?", productID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Order("created_at DESC").
		Find(&movements).Error

	return movements, total, err
}

func (r *stockMovementRepository) ListByReference(ctx context.Context, referenceID uuid.UUID) ([]entity.StockMovement, error) {
	var movements []entity.StockMovement
	err := conn(ctx, r.db).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}

type cashMovementRepository struct {
	db *gorm.DB
}

// NewCashMovementRepository creates a new cash movement repository
func NewCashMovementRepository(db *gorm.DB) domainRepo.CashMovementRepository {
	return &cashMovementRepository{db: db}
}

func (r *cashMovementRepository) Create(ctx context.Context, movement *entity.CashMovement) error {
	return conn(ctx, r.db).Create(movement).Error
}

func (r *cashMovementRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashMovement, int64, error) {
	var movements []entity.CashMovement
	var total int64

	query := conn(ctx, r.db).Model(&entity.CashMovement{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Order("created_at DESC").
		Find(&movements).Error

	return movements, total, err
}

// Balance is summed in Go so the numeric column keeps full precision on every driver.
func (r *cashMovementRepository) Balance(ctx context.Context) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := conn(ctx, r.db).Model(&entity.CashMovement{}).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, a := range amounts {
		balance = balance.Add(a)
	}
	return balance, nil
}

func (r *cashMovementRepository) ListByReference(ctx context.Context, referenceID uuid.UUID) ([]entity.CashMovement, error) {
	var movements []entity.CashMovement
	err := conn(ctx, r.db).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}
