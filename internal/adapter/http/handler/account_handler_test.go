package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/internal/core/ports/mocks"
	"fintech-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type accountHandlerDeps struct {
	ctrl    *gomock.Controller
	account *mocks.MockAccountService
	history *mocks.MockHistoryService
	h       *AccountHandler
}

func setupAccountHandler(t *testing.T) *accountHandlerDeps {
	ctrl := gomock.NewController(t)
	d := &accountHandlerDeps{
		ctrl:    ctrl,
		account: mocks.NewMockAccountService(ctrl),
		history: mocks.NewMockHistoryService(ctrl),
	}
	d.h = NewAccountHandler(d.account, d.history)
	return d
}

func TestAccountHandler_Create(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	memberID := uuid.New()
	d.account.EXPECT().CreateAccount(gomock.Any(), memberID, "1234").Return(&domain.Account{
		AccountNumber: "100200300400",
		MemberID:      memberID,
		CreatedAt:     handlerNow,
	}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{Pin: "1234"})
	withMember(c, memberID)
	d.h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "100200300400", data["account_number"])
	assert.Equal(t, float64(0), data["balance"])
}

func TestAccountHandler_Create_BadPin(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{Pin: "12a"})
	withMember(c, uuid.New())
	d.h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ACC_006", errorCode(t, w))
}

func TestAccountHandler_List(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	memberID := uuid.New()
	d.account.EXPECT().ListAccounts(gomock.Any(), memberID, 1).Return([]domain.Account{
		{AccountNumber: "100200300400", Balance: 900},
		{AccountNumber: "500600700800", Balance: 100},
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/accounts?page=1", nil)
	withMember(c, memberID)
	d.h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	items, page, count := decodePage(t, w)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, page)
	assert.Equal(t, 2, count)
}

func TestAccountHandler_List_EmptyPage(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	memberID := uuid.New()
	d.account.EXPECT().ListAccounts(gomock.Any(), memberID, 9).Return([]domain.Account{}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/accounts?page=9", nil)
	withMember(c, memberID)
	d.h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	items, _, count := decodePage(t, w)
	assert.Empty(t, items)
	assert.Equal(t, 0, count)
}

func TestAccountHandler_List_BadPage(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	c, w := newTestContext(http.MethodGet, "/api/v1/accounts?page=-1", nil)
	withMember(c, uuid.New())
	d.h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCode(t, w))
}

func TestAccountHandler_Deposit(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	d.account.EXPECT().Deposit(gomock.Any(), "100200300400", int64(100_000), "1234").
		Return(&domain.Account{AccountNumber: "100200300400", Balance: 100_000}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts/100200300400/deposit", dto.AmountRequest{Amount: 100_000, Pin: "1234"})
	withNumber(c, "100200300400")
	d.h.Deposit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100_000), decodeData(t, w)["balance"])
}

func TestAccountHandler_Deposit_ZeroAmount(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts/100200300400/deposit", dto.AmountRequest{Amount: 0, Pin: "1234"})
	withNumber(c, "100200300400")
	d.h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ACC_003", errorCode(t, w))
}

func TestAccountHandler_Deposit_MalformedNumber(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts/abc/deposit", dto.AmountRequest{Amount: 10, Pin: "1234"})
	withNumber(c, "abc")
	d.h.Deposit(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACC_001", errorCode(t, w))
}

func TestAccountHandler_Withdraw_Insufficient(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	d.account.EXPECT().Withdraw(gomock.Any(), "100200300400", int64(500), "1234").Return(nil, apperror.ErrInsufficientBalance())

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts/100200300400/withdraw", dto.AmountRequest{Amount: 500, Pin: "1234"})
	withNumber(c, "100200300400")
	d.h.Withdraw(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ACC_002", errorCode(t, w))
}

func TestAccountHandler_Close(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	d.account.EXPECT().CloseAccount(gomock.Any(), "100200300400", "1234").Return("100200300400", nil)

	c, w := newTestContext(http.MethodDelete, "/api/v1/accounts/100200300400", dto.PinRequest{Pin: "1234"})
	withNumber(c, "100200300400")
	d.h.Close(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100200300400", decodeData(t, w)["account_number"])
}

func TestAccountHandler_Close_NonZero(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	d.account.EXPECT().CloseAccount(gomock.Any(), "100200300400", "1234").Return("", apperror.ErrBalanceNonZero())

	c, w := newTestContext(http.MethodDelete, "/api/v1/accounts/100200300400", dto.PinRequest{Pin: "1234"})
	withNumber(c, "100200300400")
	d.h.Close(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ACC_004", errorCode(t, w))
}

func TestAccountHandler_History(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	d.history.EXPECT().AccountHistory(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.HistoryRequest) ([]domain.Transaction, error) {
			assert.Equal(t, "100200300400", req.AccountNumber)
			assert.Equal(t, "1234", req.Pin)
			assert.Equal(t, []domain.TransactionType{domain.TransactionTypeDeposit}, req.Types)
			require.NotNil(t, req.From)
			require.NotNil(t, req.To)
			assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *req.From)
			assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC), *req.To)
			return []domain.Transaction{{
				ID:              uuid.New(),
				TransactionType: domain.TransactionTypeDeposit,
				Amount:          100,
				CreatedAt:       handlerNow,
			}}, nil
		},
	)

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts/100200300400/transactions", dto.HistoryRequest{
		Pin:   "1234",
		Types: []string{"DEPOSIT"},
		From:  "2026-03-01",
		To:    "2026-03-31",
	})
	withNumber(c, "100200300400")
	d.h.History(c)

	assert.Equal(t, http.StatusOK, w.Code)
	items, page, _ := decodePage(t, w)
	assert.Len(t, items, 1)
	assert.Equal(t, 0, page)
}

func TestAccountHandler_History_BadDate(t *testing.T) {
	d := setupAccountHandler(t)
	defer d.ctrl.Finish()

	c, w := newTestContext(http.MethodPost, "/api/v1/accounts/100200300400/transactions", map[string]interface{}{
		"pin":  "1234",
		"from": "March 1st",
	})
	withNumber(c, "100200300400")
	d.h.History(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCode(t, w))
}
