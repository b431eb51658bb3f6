package service

import (
	"context"
	"fmt"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"
)

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	hashSvc     ports.HashService
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(accountRepo ports.AccountRepository, txRepo ports.TransactionRepository, hashSvc ports.HashService) *HistoryServiceImpl {
	return &HistoryServiceImpl{accountRepo: accountRepo, txRepo: txRepo, hashSvc: hashSvc}
}

// AccountHistory returns one page of the account's transactions, newest first.
// Types, From and To are optional filters; the date bounds are inclusive.
func (s *HistoryServiceImpl) AccountHistory(ctx context.Context, req ports.HistoryRequest) ([]domain.Transaction, error) {
	if req.Page < 0 {
		return nil, apperror.Validation("page must be >= 0")
	}
	for _, t := range req.Types {
		if !t.Valid() {
			return nil, apperror.Validation(fmt.Sprintf("unknown transaction type %q", t))
		}
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, apperror.Validation("from must not be after to")
	}

	account, err := s.accountRepo.GetByNumber(ctx, req.AccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if err := verifyPin(s.hashSvc, req.Pin, account.PinHash); err != nil {
		return nil, err
	}

	txns, err := s.txRepo.List(ctx, ports.TransactionQuery{
		AccountID: account.ID,
		Types:     req.Types,
		From:      req.From,
		To:        req.To,
		Page:      req.Page,
		PageSize:  ports.DefaultPageSize,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}
