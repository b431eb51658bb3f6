package handler

import (
	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/adapter/http/middleware"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"
	"fintech-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// CardHandler handles credit card endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(c *gin.Context) {
	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	card, err := h.cardSvc.CreateCard(c.Request.Context(), ports.CreateCardRequest{
		AccountNumber:   req.AccountNumber,
		AccountPin:      req.AccountPin,
		CardPin:         req.CardPin,
		LimitAmount:     req.LimitAmount,
		BillingDay:      req.BillingDay,
		ExpirationYears: req.ExpirationYears,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toCardResponse(card))
}

// ListByMember handles GET /api/v1/cards.
func (h *CardHandler) ListByMember(c *gin.Context) {
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

	cards, err := h.cardSvc.ListCardsByMember(c.Request.Context(), memberID, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := toCardResponses(cards)
	response.Page(c, items, page, ports.DefaultPageSize, len(items))
}

// ListByAccount handles POST /api/v1/cards/by-account.
func (h *CardHandler) ListByAccount(c *gin.Context) {
	var req dto.CardsByAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cards, err := h.cardSvc.ListCardsByAccount(c.Request.Context(), req.AccountNumber, req.Pin, req.Page)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := toCardResponses(cards)
	response.Page(c, items, req.Page, ports.DefaultPageSize, len(items))
}

// Charge handles POST /api/v1/cards/:number/charge.
func (h *CardHandler) Charge(c *gin.Context) {
	number, req, ok := bindCardAmount(c)
	if !ok {
		return
	}

	tx, err := h.cardSvc.ChargeCard(c.Request.Context(), number, req.Pin, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(tx))
}

// Pay handles POST /api/v1/cards/:number/payments.
func (h *CardHandler) Pay(c *gin.Context) {
	number, req, ok := bindCardAmount(c)
	if !ok {
		return
	}

	card, err := h.cardSvc.ImmediatePayment(c.Request.Context(), number, req.Pin, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toCardResponse(card))
}

// History handles POST /api/v1/cards/:number/history.
func (h *CardHandler) History(c *gin.Context) {
	number, ok := cardNumberParam(c)
	if !ok {
		return
	}

	var req dto.CardHistoryRequest
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

	txns, err := h.cardSvc.CardUsageHistory(c.Request.Context(), ports.CardHistoryRequest{
		CardNumber: number,
		CardPin:    req.Pin,
		From:       *from,
		To:         *to,
		Page:       req.Page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := toTransactionResponses(txns)
	response.Page(c, items, req.Page, ports.DefaultPageSize, len(items))
}

// Delete handles DELETE /api/v1/cards/:number.
func (h *CardHandler) Delete(c *gin.Context) {
	number, ok := cardNumberParam(c)
	if !ok {
		return
	}

	var req dto.DeleteCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	deleted, err := h.cardSvc.DeleteCard(c.Request.Context(), number, req.CardPin, req.AccountPin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DeleteCardResponse{CardNumber: deleted})
}

func bindCardAmount(c *gin.Context) (string, dto.CardAmountRequest, bool) {
	var req dto.CardAmountRequest
	number, ok := cardNumberParam(c)
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

func cardNumberParam(c *gin.Context) (string, bool) {
	number := c.Param("number")
	if !dto.ValidCardNumber(number) {
		response.Error(c, apperror.ErrCardNotFound())
		return "", false
	}
	return number, true
}
