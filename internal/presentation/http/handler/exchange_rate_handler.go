package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/duka-pos/internal/application/service"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/response"
)

// ExchangeRateHandler handles exchange rate requests
type ExchangeRateHandler struct {
	rateService *service.ExchangeRateService
}

func NewExchangeRateHandler(rateService *service.ExchangeRateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{rateService: rateService}
}

// Current returns the rate shown on the register
func (h *ExchangeRateHandler) Current(c *gin.Context) {
	rate, err := h.rateService.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Exchange rate retrieved successfully", rate)
}

// List returns rate history, newest first
func (h *ExchangeRateHandler) List(c *gin.Context) {
	result, err := h.rateService.History(c.Request.Context(), pageParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, "Exchange rates retrieved successfully", result)
}

// Create records a new current rate (admin only)
func (h *ExchangeRateHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rate, err := h.rateService.Create(c.Request.Context(), &service.CreateExchangeRateInput{
		Rate:       req.Rate,
		OperatorID: *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Exchange rate recorded successfully", rate)
}
