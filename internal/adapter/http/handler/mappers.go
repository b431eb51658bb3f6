package handler

import (
	"strconv"
	"time"

	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/core/domain"
	"fintech-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func toMemberResponse(m *domain.Member) dto.MemberResponse {
	return dto.MemberResponse{
		ID:        m.ID.String(),
		Email:     m.Email,
		Name:      m.Name,
		Phone:     m.Phone,
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:                    tx.ID.String(),
		TransactionType:       string(tx.TransactionType),
		AccountNumber:         tx.AccountNumber,
		Amount:                tx.Amount,
		ResultingBalance:      tx.ResultingBalance,
		SenderAccountNumber:   tx.SenderAccountNumber,
		ReceiverAccountNumber: tx.ReceiverAccountNumber,
		SenderName:            tx.SenderName,
		ReceiverName:          tx.ReceiverName,
		CreatedAt:             formatTime(tx.CreatedAt),
	}
}

func toTransactionResponses(txns []domain.Transaction) []dto.TransactionResponse {
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	return items
}

func toCardResponse(card *domain.CreditCard) dto.CardResponse {
	resp := dto.CardResponse{
		CardNumber:  card.CardNumber,
		OwnerName:   card.OwnerName,
		UsageAmount: card.UsageAmount,
		LimitAmount: card.LimitAmount,
		BillingDay:  card.BillingDay,
		ExpiresAt:   formatTime(card.ExpiresAt),
		Available:   card.Available,
		Settled:     card.Settled,
	}
	if card.LastSettledAt != nil {
		s := formatTime(*card.LastSettledAt)
		resp.LastSettledAt = &s
	}
	return resp
}

func toCardResponses(cards []domain.CreditCard) []dto.CardResponse {
	items := make([]dto.CardResponse, 0, len(cards))
	for i := range cards {
		items = append(items, toCardResponse(&cards[i]))
	}
	return items
}

// pageQuery reads the zero-based ?page= parameter.
func pageQuery(c *gin.Context) (int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return 0, apperror.Validation("page must be a non-negative integer")
	}
	return page, nil
}

// parseDate parses a YYYY-MM-DD value as the start of that day in UTC.
// An empty string yields nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, apperror.Validation("dates must use YYYY-MM-DD")
	}
	return &t, nil
}

// endOfDay returns the last instant of the day starting at t.
func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
