package postgres

import (
	"context"
	"fmt"
	"strings"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, account_id, account_number, card_id, transaction_type, amount, resulting_balance,
	sender_account_number, receiver_account_number, sender_name, receiver_name, created_at`

// TransactionRepo implements ports.TransactionRepository. The table is
// append-only: there is no update or delete path.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.AccountID, t.AccountNumber, t.CardID, t.TransactionType,
		t.Amount, t.ResultingBalance,
		t.SenderAccountNumber, t.ReceiverAccountNumber, t.SenderName, t.ReceiverName,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// List fetches one page of an account's transactions, newest first.
func (r *TransactionRepo) List(ctx context.Context, q ports.TransactionQuery) ([]domain.Transaction, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("account_id = $%d", argIdx))
	args = append(args, q.AccountID)
	argIdx++

	if q.CardID != nil {
		conditions = append(conditions, fmt.Sprintf("card_id = $%d", argIdx))
		args = append(args, *q.CardID)
		argIdx++
	}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		conditions = append(conditions, fmt.Sprintf("transaction_type = ANY($%d)", argIdx))
		args = append(args, types)
		argIdx++
	}
	if q.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *q.From)
		argIdx++
	}
	if q.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *q.To)
		argIdx++
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = ports.DefaultPageSize
	}
	offset, ok := pageOffset(q.Page, pageSize)
	if !ok {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, strings.Join(conditions, " AND "), argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.AccountID, &t.AccountNumber, &t.CardID, &t.TransactionType,
			&t.Amount, &t.ResultingBalance,
			&t.SenderAccountNumber, &t.ReceiverAccountNumber, &t.SenderName, &t.ReceiverName,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}
