package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	accountRepo ports.AccountRepository
	memberRepo  ports.MemberRepository
	txRepo      ports.TransactionRepository
	hashSvc     ports.HashService
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	accountRepo ports.AccountRepository,
	memberRepo ports.MemberRepository,
	txRepo ports.TransactionRepository,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
		txRepo:      txRepo,
		hashSvc:     hashSvc,
		transactor:  transactor,
		log:         log,
	}
}

// Transfer debits the sender and credits the receiver in one unit of work.
//
// Flow:
//  1. Validate amount and reject self-transfers
//  2. BEGIN TX
//  3. SELECT ... FOR UPDATE both accounts, lowest account number first
//  4. Verify sender PIN, check balance
//  5. UPDATE both balances
//  6. INSERT TRANSFER_SEND and TRANSFER_RECEIVE
//  7. COMMIT
//
// Returns the sender's TRANSFER_SEND entry.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.FromAccountNumber == req.ToAccountNumber {
		return nil, apperror.ErrSameAccountTransfer()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	sender, receiver, err := s.lockPair(ctx, dbTx, req.FromAccountNumber, req.ToAccountNumber)
	if err != nil {
		return nil, err
	}

	if err := verifyPin(s.hashSvc, req.FromPin, sender.PinHash); err != nil {
		return nil, err
	}
	if !sender.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if req.Amount > math.MaxInt64-receiver.Balance {
		return nil, apperror.ErrInvalidAmount()
	}

	senderName, err := s.displayName(ctx, sender.MemberID)
	if err != nil {
		return nil, err
	}
	receiverName, err := s.displayName(ctx, receiver.MemberID)
	if err != nil {
		return nil, err
	}

	sender.Balance -= req.Amount
	receiver.Balance += req.Amount

	if err := s.accountRepo.UpdateBalance(ctx, dbTx, sender.ID, sender.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, receiver.ID, receiver.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit receiver: %w", err))
	}

	now := time.Now().UTC()
	sendTx := domain.NewTransaction(sender, domain.TransactionTypeTransferSend, req.Amount, now)
	recvTx := domain.NewTransaction(receiver, domain.TransactionTypeTransferReceive, req.Amount, now)
	for _, t := range []*domain.Transaction{sendTx, recvTx} {
		t.SenderAccountNumber = sender.AccountNumber
		t.ReceiverAccountNumber = receiver.AccountNumber
		t.SenderName = senderName
		t.ReceiverName = receiverName
	}

	if err := s.txRepo.Create(ctx, dbTx, sendTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create send transaction: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, recvTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create receive transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("from_account", sender.AccountNumber).
		Str("to_account", receiver.AccountNumber).
		Int64("amount", req.Amount).
		Msg("transfer completed")

	return sendTx, nil
}

// lockPair locks both accounts in ascending account-number order so two
// opposite transfers between the same accounts cannot deadlock. A missing
// sender is reported before a missing receiver whatever the lock order.
func (s *TransferServiceImpl) lockPair(ctx context.Context, dbTx pgx.Tx, from, to string) (*domain.Account, *domain.Account, error) {
	numbers := []string{from, to}
	if to < from {
		numbers = []string{to, from}
	}

	locked := make(map[string]*domain.Account, len(numbers))
	for _, number := range numbers {
		acct, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, number)
		if err != nil {
			return nil, nil, lockFailure("lock account "+number, err)
		}
		locked[number] = acct
	}

	sender, receiver := locked[from], locked[to]
	if sender == nil {
		return nil, nil, apperror.ErrSendAccountNotFound()
	}
	if receiver == nil {
		return nil, nil, apperror.ErrReceiveAccountNotFound()
	}
	return sender, receiver, nil
}

func (s *TransferServiceImpl) displayName(ctx context.Context, memberID uuid.UUID) (string, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("get member: %w", err))
	}
	if member == nil {
		return "", nil
	}
	return member.Name, nil
}
