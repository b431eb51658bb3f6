package ports

import (
	"context"
	"time"

	"fintech-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password and PIN hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(memberID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MemberID uuid.UUID
	Email    string
}

// SettlementLock guards the daily settlement run across instances.
type SettlementLock interface {
	// Acquire returns true if the caller holds the lock for day.
	Acquire(ctx context.Context, day string, ttl time.Duration) (bool, error)
}

// Notifier delivers customer notices.
type Notifier interface {
	CardStopped(ctx context.Context, notice CardStoppedNotice) error
}

// CardStoppedNotice describes a card stopped by a settlement shortfall.
type CardStoppedNotice struct {
	Email         string
	OwnerName     string
	CardNumber    string
	Collected     int64
	Outstanding   int64
	SettlementDay time.Time
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// MemberService defines member registration and authentication.
type MemberService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
	GetProfile(ctx context.Context, memberID uuid.UUID) (*domain.Member, error)
}

// RegisterRequest holds input for member registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// AccountService is the account ledger.
type AccountService interface {
	CreateAccount(ctx context.Context, memberID uuid.UUID, pin string) (*domain.Account, error)
	Deposit(ctx context.Context, accountNumber string, amount int64, pin string) (*domain.Account, error)
	Withdraw(ctx context.Context, accountNumber string, amount int64, pin string) (*domain.Account, error)
	CloseAccount(ctx context.Context, accountNumber, pin string) (string, error)
	ListAccounts(ctx context.Context, memberID uuid.UUID, page int) ([]domain.Account, error)
}

// TransferService moves funds between two accounts atomically.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            int64
	FromPin           string
}

// CardService is the credit card billing engine.
type CardService interface {
	CreateCard(ctx context.Context, req CreateCardRequest) (*domain.CreditCard, error)
	ChargeCard(ctx context.Context, cardNumber, cardPin string, amount int64) (*domain.Transaction, error)
	ImmediatePayment(ctx context.Context, cardNumber, cardPin string, amount int64) (*domain.CreditCard, error)
	DeleteCard(ctx context.Context, cardNumber, cardPin, accountPin string) (string, error)
	ListCardsByMember(ctx context.Context, memberID uuid.UUID, page int) ([]domain.CreditCard, error)
	ListCardsByAccount(ctx context.Context, accountNumber, accountPin string, page int) ([]domain.CreditCard, error)
	CardUsageHistory(ctx context.Context, req CardHistoryRequest) ([]domain.Transaction, error)
	RunScheduledSettlement(ctx context.Context, today time.Time) (*SettlementReport, error)
}

// CreateCardRequest holds validated input for card issuance.
type CreateCardRequest struct {
	AccountNumber   string
	AccountPin      string
	CardPin         string
	LimitAmount     int64
	BillingDay      int
	ExpirationYears int
}

// CardHistoryRequest selects CARD_USAGE rows in an inclusive date range.
type CardHistoryRequest struct {
	CardNumber string
	CardPin    string
	From       time.Time
	To         time.Time
	Page       int
}

// SettlementRunResult labels how a scheduled settlement run ended.
type SettlementRunResult string

const (
	SettlementRunCompleted SettlementRunResult = "completed"
	SettlementRunLocked    SettlementRunResult = "locked" // another instance already ran today
	SettlementRunFailed    SettlementRunResult = "failed"
)

// SettlementReport summarizes one settlement sweep.
type SettlementReport struct {
	Day       time.Time
	Scanned   int
	Settled   int // fully collected
	Stopped   int // shortfall, card stopped
	Skipped   int // no longer eligible once locked
	Failed    int
	Collected int64
	Failures  []SettlementFailure
}

// SettlementFailure records one card that could not be settled.
type SettlementFailure struct {
	CardID uuid.UUID
	Err    error
}

// HistoryService queries the transaction log.
type HistoryService interface {
	AccountHistory(ctx context.Context, req HistoryRequest) ([]domain.Transaction, error)
}

// HistoryRequest selects one page of an account's transactions.
type HistoryRequest struct {
	AccountNumber string
	Pin           string
	Types         []domain.TransactionType
	From          *time.Time
	To            *time.Time
	Page          int
}
