package handler

import (
	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/adapter/http/middleware"
	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"
	"fintech-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account ledger and history endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
	historySvc ports.HistoryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, historySvc ports.HistoryService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, historySvc: historySvc}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidPinFormat())
		return
	}

	account, err := h.accountSvc.CreateAccount(c.Request.Context(), memberID, req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAccountResponse(account))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	page, err := pageQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	accounts, err := h.accountSvc.ListAccounts(c.Request.Context(), memberID, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}
	response.Page(c, items, page, ports.DefaultPageSize, len(items))
}

// Deposit handles POST /api/v1/accounts/:number/deposit.
func (h *AccountHandler) Deposit(c *gin.Context) {
	number, req, ok := h.bindAmount(c)
	if !ok {
		return
	}

	account, err := h.accountSvc.Deposit(c.Request.Context(), number, req.Amount, req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(account))
}

// Withdraw handles POST /api/v1/accounts/:number/withdraw.
func (h *AccountHandler) Withdraw(c *gin.Context) {
	number, req, ok := h.bindAmount(c)
	if !ok {
		return
	}

	account, err := h.accountSvc.Withdraw(c.Request.Context(), number, req.Amount, req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(account))
}

// Close handles DELETE /api/v1/accounts/:number.
func (h *AccountHandler) Close(c *gin.Context) {
	number, ok := accountNumberParam(c)
	if !ok {
		return
	}

	var req dto.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	closed, err := h.accountSvc.CloseAccount(c.Request.Context(), number, req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CloseAccountResponse{AccountNumber: closed})
}

// History handles POST /api/v1/accounts/:number/transactions.
func (h *AccountHandler) History(c *gin.Context) {
	number, ok := accountNumberParam(c)
	if !ok {
		return
	}

	var req dto.HistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	if to != nil {
		end := endOfDay(*to)
		to = &end
	}

	types := make([]domain.TransactionType, 0, len(req.Types))
	for _, t := range req.Types {
		types = append(types, domain.TransactionType(t))
	}

	txns, err := h.historySvc.AccountHistory(c.Request.Context(), ports.HistoryRequest{
		AccountNumber: number,
		Pin:           req.Pin,
		Types:         types,
		From:          from,
		To:            to,
		Page:          req.Page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := toTransactionResponses(txns)
	response.Page(c, items, req.Page, ports.DefaultPageSize, len(items))
}

func (h *AccountHandler) bindAmount(c *gin.Context) (string, dto.AmountRequest, bool) {
	var req dto.AmountRequest
	number, ok := accountNumberParam(c)
	if !ok {
		return "", req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if req.Amount <= 0 {
			response.Error(c, apperror.ErrInvalidAmount())
			return "", req, false
		}
		response.Error(c, apperror.Validation(err.Error()))
		return "", req, false
	}
	return number, req, true
}

func accountNumberParam(c *gin.Context) (string, bool) {
	number := c.Param("number")
	if !dto.ValidAccountNumber(number) {
		response.Error(c, apperror.ErrAccountNotFound())
		return "", false
	}
	return number, true
}
