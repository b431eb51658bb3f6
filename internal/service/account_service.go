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

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	accountRepo ports.AccountRepository
	memberRepo  ports.MemberRepository
	cardRepo    ports.CardRepository
	txRepo      ports.TransactionRepository
	hashSvc     ports.HashService
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accountRepo ports.AccountRepository,
	memberRepo ports.MemberRepository,
	cardRepo ports.CardRepository,
	txRepo ports.TransactionRepository,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
		cardRepo:    cardRepo,
		txRepo:      txRepo,
		hashSvc:     hashSvc,
		transactor:  transactor,
		log:         log,
	}
}

// CreateAccount opens a zero-balance account for the member.
// The member row is locked so concurrent opens cannot exceed the per-member cap.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, memberID uuid.UUID, pin string) (*domain.Account, error) {
	if !domain.ValidPin(pin) {
		return nil, apperror.ErrInvalidPinFormat()
	}

	pinHash, err := s.hashSvc.Hash(pin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	member, err := s.memberRepo.GetByIDForUpdate(ctx, dbTx, memberID)
	if err != nil {
		return nil, lockFailure("lock member", err)
	}
	if member == nil {
		return nil, apperror.ErrMemberNotFound()
	}

	count, err := s.accountRepo.CountByMember(ctx, dbTx, memberID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count accounts: %w", err))
	}
	if count >= domain.MaxAccountsPerMember {
		return nil, apperror.ErrAccountLimitExceeded()
	}

	number, ok, err := allocateNumber(ctx, generateAccountNumber, func(ctx context.Context, n string) (bool, error) {
		return s.accountRepo.ExistsByNumber(ctx, dbTx, n)
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("allocate account number: %w", err))
	}
	if !ok {
		return nil, apperror.ErrAccountNumberExhausted()
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uuid.New(),
		AccountNumber: number,
		Balance:       0,
		PinHash:       pinHash,
		MemberID:      memberID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(ctx, dbTx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_number", account.AccountNumber).
		Str("member_id", memberID.String()).
		Msg("account opened")

	return account, nil
}

// Deposit credits the account and appends a DEPOSIT entry.
func (s *AccountServiceImpl) Deposit(ctx context.Context, accountNumber string, amount int64, pin string) (*domain.Account, error) {
	return s.move(ctx, accountNumber, amount, pin, domain.TransactionTypeDeposit)
}

// Withdraw debits the account and appends a WITHDRAW entry.
func (s *AccountServiceImpl) Withdraw(ctx context.Context, accountNumber string, amount int64, pin string) (*domain.Account, error) {
	return s.move(ctx, accountNumber, amount, pin, domain.TransactionTypeWithdraw)
}

// move applies a single-account balance change under a row lock.
func (s *AccountServiceImpl) move(ctx context.Context, accountNumber string, amount int64, pin string, typ domain.TransactionType) (*domain.Account, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, accountNumber, pin)
	if err != nil {
		return nil, err
	}

	switch typ {
	case domain.TransactionTypeDeposit:
		if amount > math.MaxInt64-account.Balance {
			return nil, apperror.ErrInvalidAmount()
		}
		account.Balance += amount
	case domain.TransactionTypeWithdraw:
		if !account.CanDebit(amount) {
			return nil, apperror.ErrInsufficientBalance()
		}
		account.Balance -= amount
	}

	now := time.Now().UTC()
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, account.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, domain.NewTransaction(account, typ, amount, now)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	account.UpdatedAt = now

	s.log.Info().
		Str("account_number", accountNumber).
		Str("type", string(typ)).
		Int64("amount", amount).
		Int64("balance", account.Balance).
		Msg("account balance changed")

	return account, nil
}

// CloseAccount deletes an empty account that has no linked card.
// Its transaction history is kept.
func (s *AccountServiceImpl) CloseAccount(ctx context.Context, accountNumber, pin string) (string, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, accountNumber, pin)
	if err != nil {
		return "", err
	}
	if !account.IsClosable() {
		return "", apperror.ErrBalanceNonZero()
	}

	cards, err := s.cardRepo.CountByAccount(ctx, dbTx, account.ID)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("count cards: %w", err))
	}
	if cards > 0 {
		return "", apperror.ErrCardLinked()
	}

	if err := s.accountRepo.Delete(ctx, dbTx, account.ID); err != nil {
		return "", apperror.InternalError(fmt.Errorf("delete account: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return "", apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("account_number", accountNumber).Msg("account closed")
	return account.AccountNumber, nil
}

// ListAccounts returns one page of the member's accounts, largest balance first.
func (s *AccountServiceImpl) ListAccounts(ctx context.Context, memberID uuid.UUID, page int) ([]domain.Account, error) {
	if page < 0 {
		return nil, apperror.Validation("page must be >= 0")
	}

	accounts, err := s.accountRepo.ListByMember(ctx, memberID, page, ports.DefaultPageSize)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// lockAccount locks the account row by number and verifies its PIN.
func (s *AccountServiceImpl) lockAccount(ctx context.Context, dbTx pgx.Tx, accountNumber, pin string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, accountNumber)
	if err != nil {
		return nil, lockFailure("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if err := verifyPin(s.hashSvc, pin, account.PinHash); err != nil {
		return nil, err
	}
	return account, nil
}

// verifyPin maps a hash mismatch to a generic credential error.
func verifyPin(hashSvc ports.HashService, pin, hash string) error {
	ok, err := hashSvc.Verify(pin, hash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return apperror.ErrInvalidCredentials()
	}
	return nil
}
