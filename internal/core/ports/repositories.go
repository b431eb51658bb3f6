package ports

import (
	"context"
	"time"

	"fintech-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultPageSize is the page size of every ledger listing.
const DefaultPageSize = 5

// MemberRepository defines persistence operations for members.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	// GetByIDForUpdate locks the member row; used to serialize account creation.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Member, error)
}

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type AccountRepository interface {
	Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	ExistsByNumber(ctx context.Context, tx pgx.Tx, accountNumber string) (bool, error)
	CountByMember(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (int, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance int64) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	// ListByMember returns one zero-based page ordered by balance descending.
	ListByMember(ctx context.Context, memberID uuid.UUID, page, pageSize int) ([]domain.Account, error)
}

// CardRepository defines persistence operations for credit cards.
type CardRepository interface {
	Create(ctx context.Context, tx pgx.Tx, card *domain.CreditCard) error
	GetByNumber(ctx context.Context, cardNumber string) (*domain.CreditCard, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, cardNumber string) (*domain.CreditCard, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CreditCard, error)
	ExistsByNumber(ctx context.Context, tx pgx.Tx, cardNumber string) (bool, error)
	CountByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error)
	// Update persists usage, availability, settlement state and last settlement time.
	Update(ctx context.Context, tx pgx.Tx, card *domain.CreditCard) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	// ListByMember and ListByAccount return zero-based pages, newest first.
	ListByMember(ctx context.Context, memberID uuid.UUID, page, pageSize int) ([]domain.CreditCard, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.CreditCard, error)
	// ListSettlementCandidates returns ids of available cards with outstanding
	// usage whose billing day is one of billingDays.
	ListSettlementCandidates(ctx context.Context, billingDays []int) ([]uuid.UUID, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	List(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error)
}

// TransactionQuery holds filter + pagination for listing an account's transactions.
// Page is zero-based; a page past the end yields an empty slice.
type TransactionQuery struct {
	AccountID uuid.UUID
	CardID    *uuid.UUID
	Types     []domain.TransactionType
	From      *time.Time // inclusive
	To        *time.Time // inclusive
	Page      int
	PageSize  int
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
