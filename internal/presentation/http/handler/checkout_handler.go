package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/application/service"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/duka-pos/pkg/apperror"
)

// CheckoutHandler drives the checkout of the caller's session
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// View returns the current checkout
func (h *CheckoutHandler) View(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}
	view, err := h.checkout.View(sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Checkout retrieved", view)
}

// AddItem adds one unit of a product
func (h *CheckoutHandler) AddItem(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}

	var req request.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.BadRequest(c, "Invalid product_id")
		return
	}

	view, err := h.checkout.AddItem(c.Request.Context(), sessionID, userID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item added", view)
}

// SetQuantity sets a line quantity, clamped to stock; zero removes the line
func (h *CheckoutHandler) SetQuantity(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	var req request.SetCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.checkout.SetQuantity(sessionID, userID, productID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quantity updated", view)
}

// SetUnitPrice overrides a line's quoted unit price
func (h *CheckoutHandler) SetUnitPrice(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	var req request.SetUnitPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.checkout.SetUnitPrice(sessionID, userID, productID, req.UnitPrice)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Price updated", view)
}

func (h *CheckoutHandler) RemoveItem(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	view, err := h.checkout.RemoveItem(sessionID, userID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item removed", view)
}

// Clear empties the checkout
func (h *CheckoutHandler) Clear(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}
	view, err := h.checkout.Clear(sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Checkout cleared", view)
}

// SetCustomer resolves the customer of the checkout
func (h *CheckoutHandler) SetCustomer(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}

	var req request.ResolveCustomerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	input, err := resolveInput(&req)
	if err != nil {
		response.BadRequest(c, "Invalid customer_id")
		return
	}

	view, err := h.checkout.ResolveCustomer(c.Request.Context(), sessionID, userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer resolved", view)
}

// SetPayment selects the payment method
func (h *CheckoutHandler) SetPayment(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}

	var req request.SelectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	method, valid := enum.ParsePaymentMethod(req.PaymentMethod)
	if !valid {
		response.Error(c, apperror.NewFieldValidationError("payment_method", "Unknown payment method"))
		return
	}

	view, err := h.checkout.SelectPayment(sessionID, userID, method)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment method selected", view)
}

// Submit finalizes the checkout into a sale
func (h *CheckoutHandler) Submit(c *gin.Context) {
	userID, sessionID, ok := operator(c)
	if !ok {
		return
	}

	result, err := h.checkout.Submit(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Sale completed successfully", result)
}
