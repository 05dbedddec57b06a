package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/duka-pos/internal/application/service"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/response"
)

// CashLedgerHandler handles the cash drawer ledger
type CashLedgerHandler struct {
	ledger *service.CashLedgerService
}

func NewCashLedgerHandler(ledger *service.CashLedgerService) *CashLedgerHandler {
	return &CashLedgerHandler{ledger: ledger}
}

// List returns ledger entries with the running balance
func (h *CashLedgerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.ledger.List(ctx, pageParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	balance, err := h.ledger.Balance(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash ledger retrieved successfully", gin.H{
		"items":      result.Items,
		"pagination": result.Pagination,
		"balance":    balance,
	})
}

// Record posts a manual income or expense
func (h *CashLedgerHandler) Record(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.RecordCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	movement, err := h.ledger.Record(c.Request.Context(), &service.RecordCashInput{
		OperatorID:  *userID,
		Type:        enum.CashMovementType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Cash movement recorded successfully", movement)
}
