package handler

import (
	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"
	"fintech-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransferHandler handles account-to-account transfers.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/transfers. The response is the sender's entry.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if req.Amount <= 0 {
			response.Error(c, apperror.ErrInvalidAmount())
			return
		}
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	tx, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		FromAccountNumber: req.FromAccountNumber,
		ToAccountNumber:   req.ToAccountNumber,
		Amount:            req.Amount,
		FromPin:           req.Pin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(tx))
}
