package postgres

import (
	"context"
	"errors"
	"fmt"

	"fintech-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const cardColumns = `id, card_number, pin_hash, owner_name, usage_amount, limit_amount, billing_day,
	expires_at, available, settled, account_id, member_id, last_settled_at, created_at, updated_at`

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

// Create inserts a new credit card within a transaction.
func (r *CardRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.CreditCard) error {
	query := `INSERT INTO credit_cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := tx.Exec(ctx, query,
		c.ID, c.CardNumber, c.PinHash, c.OwnerName, c.UsageAmount, c.LimitAmount, c.BillingDay,
		c.ExpiresAt, c.Available, c.Settled, c.AccountID, c.MemberID, c.LastSettledAt,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByNumber fetches a card by number (non-locking read).
func (r *CardRepo) GetByNumber(ctx context.Context, cardNumber string) (*domain.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM credit_cards WHERE card_number = $1`
	return scanCard(r.pool.QueryRow(ctx, query, cardNumber), "get card by number")
}

// GetByNumberForUpdate fetches a card by number with pessimistic locking.
// This MUST be called within a transaction.
func (r *CardRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, cardNumber string) (*domain.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM credit_cards WHERE card_number = $1 FOR UPDATE`
	return scanCard(tx.QueryRow(ctx, query, cardNumber), "get card for update by number")
}

// GetByIDForUpdate fetches a card by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *CardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM credit_cards WHERE id = $1 FOR UPDATE`
	return scanCard(tx.QueryRow(ctx, query, id), "get card for update by id")
}

// ExistsByNumber reports whether a card number is already taken.
func (r *CardRepo) ExistsByNumber(ctx context.Context, tx pgx.Tx, cardNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM credit_cards WHERE card_number = $1)`

	var exists bool
	if err := tx.QueryRow(ctx, query, cardNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check card number: %w", err)
	}
	return exists, nil
}

// CountByAccount returns how many cards reference the account.
func (r *CardRepo) CountByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM credit_cards WHERE account_id = $1`

	var n int
	if err := tx.QueryRow(ctx, query, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards by account: %w", err)
	}
	return n, nil
}

// Update persists the mutable card state within a transaction.
func (r *CardRepo) Update(ctx context.Context, tx pgx.Tx, c *domain.CreditCard) error {
	query := `UPDATE credit_cards
		SET usage_amount = $1, available = $2, settled = $3, last_settled_at = $4, updated_at = $5
		WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		c.UsageAmount, c.Available, c.Settled, c.LastSettledAt, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %s", c.ID)
	}
	return nil
}

// Delete removes the card row.
func (r *CardRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM credit_cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %s", id)
	}
	return nil
}

// ListByMember returns one zero-based page of the member's cards, newest first.
func (r *CardRepo) ListByMember(ctx context.Context, memberID uuid.UUID, page, pageSize int) ([]domain.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM credit_cards
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, memberID, page, pageSize)
}

// ListByAccount returns one zero-based page of the account's cards, newest first.
func (r *CardRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM credit_cards
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, accountID, page, pageSize)
}

// ListSettlementCandidates returns ids of available cards with outstanding
// usage billed on one of billingDays. Rows are not locked; the sweep
// re-checks each card under FOR UPDATE.
func (r *CardRepo) ListSettlementCandidates(ctx context.Context, billingDays []int) ([]uuid.UUID, error) {
	query := `SELECT id FROM credit_cards
		WHERE available = TRUE AND usage_amount > 0 AND billing_day = ANY($1)
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, billingDays)
	if err != nil {
		return nil, fmt.Errorf("list settlement candidates: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}
	return ids, nil
}

func (r *CardRepo) list(ctx context.Context, query string, owner uuid.UUID, page, pageSize int) ([]domain.CreditCard, error) {
	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, query, owner, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.CreditCard
	for rows.Next() {
		card, err := scanCard(rows, "scan card row")
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}

func scanCard(row pgx.Row, op string) (*domain.CreditCard, error) {
	c := &domain.CreditCard{}
	err := row.Scan(
		&c.ID, &c.CardNumber, &c.PinHash, &c.OwnerName, &c.UsageAmount, &c.LimitAmount, &c.BillingDay,
		&c.ExpiresAt, &c.Available, &c.Settled, &c.AccountID, &c.MemberID, &c.LastSettledAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
