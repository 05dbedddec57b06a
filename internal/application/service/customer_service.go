package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/pagination"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name           string
	DocumentNumber *string
	Email          *string
	Phone          *string
	Address        *string
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldValidationError("name", "Name is required")
	}

	doc := normalizeDocument(input.DocumentNumber)
	if doc != nil {
		existing, err := s.customerRepo.GetByDocument(ctx, *doc)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("Document number already registered")
		}
	}

	customer := &entity.Customer{
		Name:           name,
		DocumentNumber: doc,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers returns a page of customers, the standard customer first
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Customer], error) {
	params.Validate()
	customers, total, err := s.customerRepo.List(ctx, params, search)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(customers, params, total), nil
}

// ResolveCustomerInput identifies a customer by id or document number.
// With neither set the standard customer is returned.
type ResolveCustomerInput struct {
	ID             *uuid.UUID
	DocumentNumber string
}

// Resolve finds the customer a sale is attributed to.
func (s *CustomerService) Resolve(ctx context.Context, input *ResolveCustomerInput) (*entity.Customer, error) {
	var (
		customer *entity.Customer
		err      error
	)

	switch {
	case input.ID != nil:
		customer, err = s.customerRepo.GetByID(ctx, *input.ID)
	case strings.TrimSpace(input.DocumentNumber) != "":
		customer, err = s.customerRepo.GetByDocument(ctx, strings.TrimSpace(input.DocumentNumber))
	default:
		customer, err = s.customerRepo.GetStandard(ctx)
		if err == nil && customer == nil {
			return nil, apperror.ErrNoStandardCustomer
		}
	}
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

func normalizeDocument(doc *string) *string {
	if doc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*doc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
