package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"gorm.io/gorm"
)

var errStockShort = errors.New("insufficient stock")

var productSortColumns = map[string]string{
	"name":       "name",
	"code":       "code",
	"quantity":   "quantity",
	"created_at": "created_at",
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return conn(ctx, r.db).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// GetByIDs retrieves multiple products by their IDs in a single query
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	var products []entity.Product
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepository) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).First(&product, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	return conn(ctx, r.db).Model(product).
		Select("name", "code", "quantity_alert", "purchase_price", "selling_price").
		Updates(product).Error
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := conn(ctx, r.db).Model(&entity.Product{}).
		Scopes(Search(params.Search, "name", "code"))

	if params.LowStock {
		query = query.Where("quantity <= quantity_alert")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	if col, ok := productSortColumns[params.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order(sortBy + " " + sortOrder).
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) GetStock(ctx context.Context, id uuid.UUID) (int, bool, error) {
	var product entity.Product
	err := conn(ctx, r.db).Select("id", "quantity").First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return product.Quantity, true, nil
}

func (r *productRepository) GetStocks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	stocks := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return stocks, nil
	}
	var products []entity.Product
	if err := conn(ctx, r.db).Select("id", "quantity").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		stocks[p.ID] = p.Quantity
	}
	return stocks, nil
}

func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return conn(ctx, r.db).Model(&entity.Product{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// AtomicDecrementBatch runs UPDATE products SET quantity = quantity - n
// WHERE id = ? AND quantity >= n for each product, in id order.
// Inside an outer transaction this becomes a savepoint.
func (r *productRepository) AtomicDecrementBatch(ctx context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error) {
	if len(decrements) == 0 {
		return nil, nil
	}

	var failedIDs []uuid.UUID

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, id := range sortedIDs(decrements) {
			amount := decrements[id]
			result := tx.Model(&entity.Product{}).
				Where("id = ? AND quantity >= ?", id, amount).
				Update("quantity", gorm.Expr("quantity - ?", amount))

			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				failedIDs = append(failedIDs, id)
			}
		}

		if len(failedIDs) > 0 {
			return errStockShort
		}
		return nil
	})

	if errors.Is(err, errStockShort) {
		return failedIDs, nil
	}
	return nil, err
}

// AtomicIncrementBatch runs UPDATE products SET quantity = quantity + n for each product, in id order.
func (r *productRepository) AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error {
	if len(increments) == 0 {
		return nil
	}

	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, id := range sortedIDs(increments) {
			if err := tx.Model(&entity.Product{}).
				Where("id = ?", id).
				Update("quantity", gorm.Expr("quantity + ?", increments[id])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func sortedIDs(m map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
