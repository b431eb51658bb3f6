package postgres

import (
	"context"
	"errors"
	"fmt"

	"fintech-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, account_number, balance, pin_hash, member_id, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account within a transaction.
func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		a.ID, a.AccountNumber, a.Balance, a.PinHash, a.MemberID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByNumber fetches an account by number (non-locking read).
func (r *AccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, accountNumber), "get account by number")
}

// GetByNumberForUpdate fetches an account by number with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, accountNumber), "get account for update by number")
}

// GetByIDForUpdate fetches an account by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, id), "get account for update by id")
}

// ExistsByNumber reports whether an account number is already taken.
func (r *AccountRepo) ExistsByNumber(ctx context.Context, tx pgx.Tx, accountNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`

	var exists bool
	if err := tx.QueryRow(ctx, query, accountNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account number: %w", err)
	}
	return exists, nil
}

// CountByMember returns how many accounts the member owns.
func (r *AccountRepo) CountByMember(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE member_id = $1`

	var n int
	if err := tx.QueryRow(ctx, query, memberID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts by member: %w", err)
	}
	return n, nil
}

// UpdateBalance sets the account balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance int64) error {
	query := `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// Delete removes the account row. Transactions referencing it are kept.
func (r *AccountRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// ListByMember returns one zero-based page of the member's accounts,
// largest balance first.
func (r *AccountRepo) ListByMember(ctx context.Context, memberID uuid.UUID, page, pageSize int) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE member_id = $1
		ORDER BY balance DESC, account_number ASC
		LIMIT $2 OFFSET $3`

	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, query, memberID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.Balance, &a.PinHash, &a.MemberID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.AccountNumber, &a.Balance, &a.PinHash, &a.MemberID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
