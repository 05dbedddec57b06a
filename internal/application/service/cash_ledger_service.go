package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// CashLedgerService records manual cash movements and reports the balance.
// Sale-driven entries are posted by SaleService.
type CashLedgerService struct {
	cashRepo repository.CashMovementRepository
	now      func() time.Time
}

// NewCashLedgerService creates a new cash ledger service
func NewCashLedgerService(cashRepo repository.CashMovementRepository) *CashLedgerService {
	return &CashLedgerService{cashRepo: cashRepo, now: utcNow}
}

// RecordCashInput represents a manual income or expense. Amount is positive
// and in the base currency.
type RecordCashInput struct {
	OperatorID  uuid.UUID
	Type        enum.CashMovementType
	Amount      decimal.Decimal
	Description string
}

// Record posts an income (positive) or expense (negative) entry
func (s *CashLedgerService) Record(ctx context.Context, input *RecordCashInput) (*entity.CashMovement, error) {
	var errs []apperror.FieldError
	if !input.Type.IsManual() {
		errs = append(errs, apperror.FieldError{Field: "type", Message: "Type must be income or expense"})
	}
	if !input.Amount.IsPositive() {
		errs = append(errs, apperror.FieldError{Field: "amount", Message: "Amount must be greater than zero"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	amount := currency.RoundBase(input.Amount)
	if input.Type == enum.CashMovementExpense {
		amount = amount.Neg()
	}

	movement := &entity.CashMovement{
		Type:        input.Type,
		Amount:      amount,
		Description: strings.TrimSpace(input.Description),
		OperatorID:  input.OperatorID,
		CreatedAt:   s.now(),
	}
	if err := s.cashRepo.Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// List returns ledger entries newest first
func (s *CashLedgerService) List(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.CashMovement], error) {
	params.Validate()
	movements, total, err := s.cashRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(movements, params, total), nil
}

// Balance returns the running sum of the ledger
func (s *CashLedgerService) Balance(ctx context.Context) (decimal.Decimal, error) {
	return s.cashRepo.Balance(ctx)
}
