package request

// CreateCustomerRequest represents a customer creation request
type CreateCustomerRequest struct {
	Name           string  `json:"name" binding:"required,min=2,max=255"`
	DocumentNumber *string `json:"document_number" binding:"omitempty,max=50"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,max=50"`
	Address        *string `json:"address"`
}

// ResolveCustomerRequest picks the customer of a checkout. With neither field
// set the standard customer is used.
type ResolveCustomerRequest struct {
	CustomerID     string `json:"customer_id" form:"customer_id" binding:"omitempty,uuid"`
	DocumentNumber string `json:"document_number" form:"document_number"`
}
