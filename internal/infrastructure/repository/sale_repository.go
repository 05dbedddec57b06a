package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	return conn(ctx, r.db).Omit("Items", "Customer", "Operator").Create(sale).Error
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Customer").
		Preload("Operator").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return conn(ctx, r.db).Model(&entity.Sale{}).
		Where("id = ?", id).
		Update("total", total).Error
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.Sale{}, "id = ?", id).Error
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := conn(ctx, r.db).Model(&entity.Sale{})

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.OperatorID != nil {
		query = query.Where("operator_id = ?", *params.OperatorID)
	}
	if params.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *params.PaymentMethod)
	}
	if params.StartDate != nil {
		query = query.Where("sold_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("sold_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Preload("Customer").
		Order("sold_at DESC").
		Find(&sales).Error

	return sales, total, err
}

type saleItemRepository struct {
	db *gorm.DB
}

// NewSaleItemRepository creates a new sale item repository
func NewSaleItemRepository(db *gorm.DB) domainRepo.SaleItemRepository {
	return &saleItemRepository{db: db}
}

func (r *saleItemRepository) CreateBatch(ctx context.Context, items []entity.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db).Omit("Product").Create(&items).Error
}

func (r *saleItemRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error) {
	var items []entity.SaleItem
	err := conn(ctx, r.db).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *saleItemRepository) Update(ctx context.Context, item *entity.SaleItem) error {
	return conn(ctx, r.db).Model(&entity.SaleItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		}).Error
}

func (r *saleItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.SaleItem{}, "id = ?", id).Error
}

func (r *saleItemRepository) DeleteBySaleID(ctx context.Context, saleID uuid.UUID) error {
	return conn(ctx, r.db).Where("sale_id = ?", saleID).Delete(&entity.SaleItem{}).Error
}
