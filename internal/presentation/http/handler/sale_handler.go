package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/application/service"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/duka-pos/pkg/pagination"
)

const dateLayout = "2006-01-02"

// SaleHandler handles persisted sales: listing, edit and deletion
type SaleHandler struct {
	saleService *service.SaleService
}

func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// List handles listing sales, newest first
func (h *SaleHandler) List(c *gin.Context) {
	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.SaleFilterParams{
		Pagination: &pagination.PaginationParams{Page: filter.Page, PerPage: filter.PerPage},
	}
	if filter.CustomerID != "" {
		id := uuid.MustParse(filter.CustomerID)
		params.CustomerID = &id
	}
	if filter.OperatorID != "" {
		id := uuid.MustParse(filter.OperatorID)
		params.OperatorID = &id
	}
	if filter.PaymentMethod != "" {
		method, ok := enum.ParsePaymentMethod(filter.PaymentMethod)
		if !ok {
			response.BadRequest(c, "Invalid payment_method")
			return
		}
		params.PaymentMethod = &method
	}
	if filter.StartDate != "" {
		start, err := time.Parse(dateLayout, filter.StartDate)
		if err != nil {
			response.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		params.StartDate = &start
	}
	if filter.EndDate != "" {
		end, err := time.Parse(dateLayout, filter.EndDate)
		if err != nil {
			response.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		// inclusive of the whole end day
		end = end.Add(24*time.Hour - time.Nanosecond)
		params.EndDate = &end
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, "Sales retrieved successfully", result)
}

// Get returns a sale with its items and receipt
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	receipt, err := h.saleService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sale retrieved successfully", gin.H{"sale": sale, "receipt": receipt})
}

// EditView returns the editable lines of a sale at its rate snapshot
func (h *SaleHandler) EditView(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.saleService.EditView(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sale edit loaded", view)
}

// SaveEdit replaces the lines of a sale and reconciles stock
func (h *SaleHandler) SaveEdit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.EditSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	lines := make([]service.EditLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.EditLineInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	result, err := h.saleService.SaveEdit(c.Request.Context(), &service.SaveEditInput{
		SaleID:     id,
		OperatorID: *userID,
		Lines:      lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Sale updated successfully"
	if len(result.Rejected) > 0 {
		message = "Sale updated; some changes exceeded available stock"
	}
	response.OK(c, message, result)
}

// Delete removes a sale and restores its stock (admin only)
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), id, *userID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sale deleted successfully", nil)
}
