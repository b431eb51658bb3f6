package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHistoryService_AccountHistory_Filtered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	svc := NewHistoryService(accountRepo, txRepo, hashSvc)

	ctx := context.Background()
	acct := testAccount(1_000)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	types := []domain.TransactionType{domain.TransactionTypeDeposit, domain.TransactionTypeWithdraw}

	accountRepo.EXPECT().GetByNumber(ctx, acct.AccountNumber).Return(acct, nil)
	hashSvc.EXPECT().Verify("1234", "pin-hash").Return(true, nil)
	txRepo.EXPECT().List(ctx, ports.TransactionQuery{
		AccountID: acct.ID,
		Types:     types,
		From:      &from,
		To:        &to,
		Page:      1,
		PageSize:  ports.DefaultPageSize,
	}).Return([]domain.Transaction{{}, {}}, nil)

	txns, err := svc.AccountHistory(ctx, ports.HistoryRequest{
		AccountNumber: acct.AccountNumber,
		Pin:           "1234",
		Types:         types,
		From:          &from,
		To:            &to,
		Page:          1,
	})
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestHistoryService_AccountHistory_EmptyPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	svc := NewHistoryService(accountRepo, txRepo, hashSvc)

	ctx := context.Background()
	acct := testAccount(1_000)

	accountRepo.EXPECT().GetByNumber(ctx, acct.AccountNumber).Return(acct, nil)
	hashSvc.EXPECT().Verify("1234", "pin-hash").Return(true, nil)
	txRepo.EXPECT().List(ctx, gomock.Any()).Return(nil, nil)

	txns, err := svc.AccountHistory(ctx, ports.HistoryRequest{AccountNumber: acct.AccountNumber, Pin: "1234", Page: 99})
	require.NoError(t, err)
	assert.NotNil(t, txns)
	assert.Empty(t, txns)
}

func TestHistoryService_AccountHistory_Errors(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		req   ports.HistoryRequest
		setup func(a *mocks.MockAccountRepository, tr *mocks.MockTransactionRepository, h *mocks.MockHashService)
		code  string
	}{
		{
			name: "negative page",
			req:  ports.HistoryRequest{AccountNumber: "100200300400", Page: -1},
			code: "VAL_001",
		},
		{
			name: "unknown type",
			req:  ports.HistoryRequest{AccountNumber: "100200300400", Types: []domain.TransactionType{"REFUND"}},
			code: "VAL_001",
		},
		{
			name: "inverted range",
			req:  ports.HistoryRequest{AccountNumber: "100200300400", From: &from, To: &to},
			code: "VAL_001",
		},
		{
			name: "account not found",
			req:  ports.HistoryRequest{AccountNumber: "100200300400", Pin: "1234"},
			setup: func(a *mocks.MockAccountRepository, _ *mocks.MockTransactionRepository, _ *mocks.MockHashService) {
				a.EXPECT().GetByNumber(gomock.Any(), "100200300400").Return(nil, nil)
			},
			code: "ACC_001",
		},
		{
			name: "wrong pin",
			req:  ports.HistoryRequest{AccountNumber: "100200300400", Pin: "0000"},
			setup: func(a *mocks.MockAccountRepository, _ *mocks.MockTransactionRepository, h *mocks.MockHashService) {
				a.EXPECT().GetByNumber(gomock.Any(), "100200300400").Return(testAccount(0), nil)
				h.EXPECT().Verify("0000", "pin-hash").Return(false, nil)
			},
			code: "AUTH_001",
		},
		{
			name: "store failure",
			req:  ports.HistoryRequest{AccountNumber: "100200300400", Pin: "1234"},
			setup: func(a *mocks.MockAccountRepository, tr *mocks.MockTransactionRepository, h *mocks.MockHashService) {
				a.EXPECT().GetByNumber(gomock.Any(), "100200300400").Return(testAccount(0), nil)
				h.EXPECT().Verify("1234", "pin-hash").Return(true, nil)
				tr.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
			},
			code: "SYS_001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			accountRepo := mocks.NewMockAccountRepository(ctrl)
			txRepo := mocks.NewMockTransactionRepository(ctrl)
			hashSvc := mocks.NewMockHashService(ctrl)
			if tt.setup != nil {
				tt.setup(accountRepo, txRepo, hashSvc)
			}

			svc := NewHistoryService(accountRepo, txRepo, hashSvc)
			_, err := svc.AccountHistory(context.Background(), tt.req)
			assertAppError(t, err, tt.code)
		})
	}
}
