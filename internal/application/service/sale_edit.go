package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/shopspring/decimal"
)

// EditLine is one product of a sale being edited. UnitPrice is in the quoted
// currency, derived from the sale's rate snapshot.
type EditLine struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	PersistedQuantity int             `json:"persisted_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`

	basePrice decimal.Decimal
}

// StockRejection is a requested increase that stock could not cover. The
// line keeps its previous quantity.
type StockRejection struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func (r *StockRejection) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d more, available %d", r.Name, r.Requested, r.Available)
}

// EditBuffer holds the persisted items of a sale alongside an editable copy.
// Quantity increases and additions are checked against current stock; a
// rejected change leaves the rest of the buffer untouched.
type EditBuffer struct {
	SaleID uuid.UUID
	Rate   decimal.Decimal

	stock     StockChecker
	persisted []entity.SaleItem
	old       map[uuid.UUID]entity.SaleItem
	lines     map[uuid.UUID]*EditLine
	order     []uuid.UUID
	rejected  []StockRejection
}

func newEditBuffer(sale *entity.Sale, stock StockChecker) (*EditBuffer, error) {
	if !currency.ValidRate(sale.RateSnapshot) {
		return nil, apperror.ErrNoExchangeRate
	}

	b := &EditBuffer{
		SaleID:    sale.ID,
		Rate:      sale.RateSnapshot,
		stock:     stock,
		persisted: sale.Items,
		old:       make(map[uuid.UUID]entity.SaleItem, len(sale.Items)),
		lines:     make(map[uuid.UUID]*EditLine, len(sale.Items)),
	}
	for _, item := range sale.Items {
		quoted, err := currency.ToQuoted(item.UnitPrice, b.Rate)
		if err != nil {
			return nil, apperror.ErrNoExchangeRate
		}
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		b.old[item.ProductID] = item
		b.lines[item.ProductID] = &EditLine{
			ProductID:         item.ProductID,
			Name:              name,
			Quantity:          item.Quantity,
			PersistedQuantity: item.Quantity,
			UnitPrice:         quoted,
			basePrice:         item.UnitPrice,
		}
		b.order = append(b.order, item.ProductID)
	}
	return b, nil
}

// Lines returns the editable lines in order
func (b *EditBuffer) Lines() []EditLine {
	out := make([]EditLine, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.lines[id])
	}
	return out
}

// Rejected returns every stock rejection recorded so far
func (b *EditBuffer) Rejected() []StockRejection {
	out := make([]StockRejection, len(b.rejected))
	copy(out, b.rejected)
	return out
}

func (b *EditBuffer) persistedQuantity(productID uuid.UUID) int {
	if item, ok := b.old[productID]; ok {
		return item.Quantity
	}
	return 0
}

// gate checks stock for raising productID to newQty. requestedDelta is
// measured against the persisted quantity, not the buffer.
func (b *EditBuffer) gate(ctx context.Context, productID uuid.UUID, name string, newQty int) error {
	delta := newQty - b.persistedQuantity(productID)
	if delta <= 0 {
		return nil
	}
	check, err := b.stock.CheckStock(ctx, productID, delta)
	if err != nil {
		return err
	}
	if check.Sufficient {
		return nil
	}
	rejection := StockRejection{ProductID: productID, Name: name, Requested: delta, Available: check.Available}
	b.rejected = append(b.rejected, rejection)
	return &rejection
}

// SetQuantity changes a line's quantity. Increases are stock checked.
func (b *EditBuffer) SetQuantity(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperror.NewFieldValidationError("quantity", "Quantity must be greater than zero")
	}
	line, ok := b.lines[productID]
	if !ok {
		return apperror.NewNotFoundError("Sale line")
	}
	if qty > line.Quantity {
		if err := b.gate(ctx, productID, line.Name, qty); err != nil {
			return err
		}
	}
	line.Quantity = qty
	return nil
}

// SetUnitPrice changes a line's quoted unit price.
func (b *EditBuffer) SetUnitPrice(productID uuid.UUID, price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperror.NewFieldValidationError("unit_price", "Unit price must be greater than zero")
	}
	line, ok := b.lines[productID]
	if !ok {
		return apperror.NewNotFoundError("Sale line")
	}
	if price.Equal(line.UnitPrice) {
		return nil
	}
	base, err := currency.ToBase(price, b.Rate)
	if err != nil {
		return apperror.ErrNoExchangeRate
	}
	line.UnitPrice = price
	line.basePrice = currency.RoundBase(base)
	return nil
}

// Remove drops a line. Removals are never stock checked.
func (b *EditBuffer) Remove(productID uuid.UUID) error {
	if _, ok := b.lines[productID]; !ok {
		return apperror.NewNotFoundError("Sale line")
	}
	delete(b.lines, productID)
	for i, id := range b.order {
		if id == productID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Add puts product in the sale at qty and the quoted price. A product already
// in the buffer has its quantity raised by qty instead.
func (b *EditBuffer) Add(ctx context.Context, product *entity.Product, qty int, price decimal.Decimal) error {
	if qty <= 0 {
		return apperror.NewFieldValidationError("quantity", "Quantity must be greater than zero")
	}
	if !price.IsPositive() {
		return apperror.NewFieldValidationError("unit_price", "Unit price must be greater than zero")
	}

	if line, ok := b.lines[product.ID]; ok {
		if err := b.SetQuantity(ctx, product.ID, line.Quantity+qty); err != nil {
			return err
		}
		return b.SetUnitPrice(product.ID, price)
	}

	if err := b.gate(ctx, product.ID, product.Name, qty); err != nil {
		return err
	}
	base, err := currency.ToBase(price, b.Rate)
	if err != nil {
		return apperror.ErrNoExchangeRate
	}
	b.lines[product.ID] = &EditLine{
		ProductID:         product.ID,
		Name:              product.Name,
		Quantity:          qty,
		PersistedQuantity: b.persistedQuantity(product.ID),
		UnitPrice:         price,
		basePrice:         currency.RoundBase(base),
	}
	b.order = append(b.order, product.ID)
	return nil
}

// Plan diffs the buffer against the persisted items
func (b *EditBuffer) Plan() []ReconcileStep {
	desired := make([]PlannedLine, 0, len(b.order))
	for _, id := range b.order {
		line := b.lines[id]
		desired = append(desired, PlannedLine{ProductID: id, Quantity: line.Quantity, UnitPrice: line.basePrice})
	}
	return PlanReconciliation(b.persisted, desired)
}

// EditView is the editable state of a sale as shown to the operator
type EditView struct {
	SaleID        uuid.UUID          `json:"sale_id"`
	Rate          decimal.Decimal    `json:"rate"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	Lines         []EditLine         `json:"lines"`
}

// LoadEdit opens an edit buffer on a sale. The sale's rate snapshot must be valid.
func (s *SaleService) LoadEdit(ctx context.Context, saleID uuid.UUID) (*EditBuffer, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return newEditBuffer(sale, s.stock)
}

// EditView returns the buffer view of a sale without changing it
func (s *SaleService) EditView(ctx context.Context, saleID uuid.UUID) (*EditView, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	buf, err := newEditBuffer(sale, s.stock)
	if err != nil {
		return nil, err
	}
	return &EditView{SaleID: sale.ID, Rate: buf.Rate, PaymentMethod: sale.PaymentMethod, Lines: buf.Lines()}, nil
}

// EditLineInput is one desired line of an edited sale. UnitPrice is quoted.
type EditLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaveEditInput is the complete desired state of a sale. Persisted products
// missing from Lines are removed.
type SaveEditInput struct {
	SaleID     uuid.UUID
	OperatorID uuid.UUID
	Lines      []EditLineInput
}

// EditResult is the saved sale, the changes that stock could not cover and
// the stock left on every touched product.
type EditResult struct {
	Sale        *entity.Sale        `json:"sale"`
	Rejected    []StockRejection    `json:"rejected"`
	StockLevels []entity.StockLevel `json:"stock_levels"`
}

const emptySaleMessage = "A sale must keep at least one item; delete the sale instead"

func validateEditLines(lines []EditLineInput) error {
	if len(lines) == 0 {
		return apperror.NewFieldValidationError("items", emptySaleMessage)
	}
	var errs []apperror.FieldError
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "Quantity must be greater than zero"})
		}
		if !line.UnitPrice.IsPositive() {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "Unit price must be greater than zero"})
		}
		if _, dup := seen[line.ProductID]; dup {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("items[%d].product_id", i), Message: "Product appears more than once"})
		}
		seen[line.ProductID] = struct{}{}
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

// SaveEdit applies the desired lines to a sale in one transaction. Stock
// rejections drop only the offending change. The total is recomputed from
// the stored items and cash sales post the difference to the ledger.
func (s *SaleService) SaveEdit(ctx context.Context, input *SaveEditInput) (*EditResult, error) {
	if err := validateEditLines(input.Lines); err != nil {
		return nil, err
	}

	var result *EditResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		buf, err := s.LoadEdit(ctx, input.SaleID)
		if err != nil {
			return err
		}
		oldTotal := entity.ComputeTotal(buf.persisted)

		if err := s.applyEditLines(ctx, buf, input.Lines); err != nil {
			return err
		}
		if err := keepsItems(buf); err != nil {
			return err
		}

		steps := buf.Plan()
		if err := s.applyPlan(ctx, input.SaleID, input.OperatorID, steps); err != nil {
			return err
		}

		items, err := s.saleItemRepo.GetBySaleID(ctx, input.SaleID)
		if err != nil {
			return err
		}
		newTotal := entity.ComputeTotal(items)
		if err := s.saleRepo.UpdateTotal(ctx, input.SaleID, newTotal); err != nil {
			return fmt.Errorf("update sale total: %w", err)
		}

		sale, err := s.GetSale(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if diff := newTotal.Sub(oldTotal); sale.PaymentMethod == enum.PaymentCash && !diff.IsZero() {
			if err := s.postCash(ctx, enum.CashMovementSaleEdit, diff, "Sale edited", sale.ID, input.OperatorID); err != nil {
				return err
			}
		}

		touched := make([]uuid.UUID, 0, len(steps))
		for _, step := range steps {
			touched = append(touched, step.ProductID)
		}
		levels, err := s.stockLevels(ctx, touched)
		if err != nil {
			return err
		}

		result = &EditResult{Sale: sale, Rejected: buf.Rejected(), StockLevels: levels}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// keepsItems fails when the buffer ended up empty, which happens when every
// requested line was rejected for stock after the omitted ones were removed.
func keepsItems(buf *EditBuffer) error {
	if len(buf.Lines()) > 0 {
		return nil
	}
	rejected := buf.Rejected()
	if len(rejected) == 0 {
		return apperror.NewFieldValidationError("items", emptySaleMessage)
	}
	shortages := make([]apperror.FieldError, 0, len(rejected))
	for _, r := range rejected {
		shortages = append(shortages, shortageField(r.ProductID, r.Name, r.Requested, r.Available))
	}
	return apperror.NewInsufficientStockError(shortages)
}

// applyEditLines drives the buffer from the desired lines, keeping stock
// rejections and failing on anything else.
func (s *SaleService) applyEditLines(ctx context.Context, buf *EditBuffer, lines []EditLineInput) error {
	wanted := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		wanted[line.ProductID] = struct{}{}
	}
	for _, existing := range buf.Lines() {
		if _, keep := wanted[existing.ProductID]; !keep {
			if err := buf.Remove(existing.ProductID); err != nil {
				return err
			}
		}
	}

	for _, line := range lines {
		var err error
		if current, ok := buf.lines[line.ProductID]; ok {
			if err = buf.SetUnitPrice(line.ProductID, line.UnitPrice); err == nil && line.Quantity != current.Quantity {
				err = buf.SetQuantity(ctx, line.ProductID, line.Quantity)
			}
		} else {
			product, perr := s.productRepo.GetByID(ctx, line.ProductID)
			if perr != nil {
				return perr
			}
			if product == nil {
				return apperror.NewNotFoundError(fmt.Sprintf("Product %s", line.ProductID))
			}
			err = buf.Add(ctx, product, line.Quantity, line.UnitPrice)
		}

		var rejection *StockRejection
		if err != nil && !errors.As(err, &rejection) {
			return err
		}
	}
	return nil
}

// applyPlan writes stock changes first, then the item rows, then the movements.
func (s *SaleService) applyPlan(ctx context.Context, saleID, operatorID uuid.UUID, steps []ReconcileStep) error {
	decrements, increments := stockChanges(steps)

	if len(decrements) > 0 {
		products := make(map[uuid.UUID]*entity.Product, len(decrements))
		ids := make([]uuid.UUID, 0, len(decrements))
		for id := range decrements {
			ids = append(ids, id)
		}
		found, err := s.productRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for i := range found {
			products[found[i].ID] = &found[i]
		}
		if err := s.takeStock(ctx, decrements, products); err != nil {
			return err
		}
	}
	if err := s.productRepo.AtomicIncrementBatch(ctx, increments); err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	var inserts []entity.SaleItem
	var movements []entity.StockMovement
	for _, step := range steps {
		switch step.Action {
		case ReconcileDelete:
			if err := s.saleItemRepo.Delete(ctx, step.ItemID); err != nil {
				return fmt.Errorf("delete sale item: %w", err)
			}
		case ReconcileUpdate:
			if err := s.saleItemRepo.Update(ctx, &entity.SaleItem{ID: step.ItemID, Quantity: step.NewQuantity, UnitPrice: step.UnitPrice}); err != nil {
				return fmt.Errorf("update sale item: %w", err)
			}
		case ReconcileInsert:
			inserts = append(inserts, entity.SaleItem{SaleID: saleID, ProductID: step.ProductID, Quantity: step.NewQuantity, UnitPrice: step.UnitPrice})
		}
		if step.StockDelta != 0 {
			movements = append(movements, s.stockMovement(step.ProductID, enum.StockMovementSaleEdit, step.StockDelta, "Sale edited", saleID, operatorID))
		}
	}

	if err := s.saleItemRepo.CreateBatch(ctx, inserts); err != nil {
		return fmt.Errorf("create sale items: %w", err)
	}
	if err := s.movementRepo.CreateBatch(ctx, movements); err != nil {
		return fmt.Errorf("record stock movements: %w", err)
	}
	return nil
}
