package postgres

import (
	"context"
	"testing"
	"time"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(accountID uuid.UUID) *domain.Transaction {
	return &domain.Transaction{
		ID:                    uuid.New(),
		AccountID:             accountID,
		AccountNumber:         "123456789012",
		TransactionType:       domain.TransactionTypeTransferSend,
		Amount:                3_000,
		ResultingBalance:      7_000,
		SenderAccountNumber:   "123456789012",
		ReceiverAccountNumber: "210987654321",
		SenderName:            "Kim",
		ReceiverName:          "Lee",
		CreatedAt:             time.Now().UTC().Truncate(time.Microsecond),
	}
}

func txColumns() []string {
	return []string{"id", "account_id", "account_number", "card_id", "transaction_type", "amount", "resulting_balance",
		"sender_account_number", "receiver_account_number", "sender_name", "receiver_name", "created_at"}
}

func txRow(rows *pgxmock.Rows, t *domain.Transaction) *pgxmock.Rows {
	return rows.AddRow(
		t.ID, t.AccountID, t.AccountNumber, t.CardID, t.TransactionType, t.Amount, t.ResultingBalance,
		t.SenderAccountNumber, t.ReceiverAccountNumber, t.SenderName, t.ReceiverName, t.CreatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())
	dbTx := beginMockTx(t, mock)

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			txn.ID, txn.AccountID, txn.AccountNumber, txn.CardID, txn.TransactionType,
			txn.Amount, txn.ResultingBalance,
			txn.SenderAccountNumber, txn.ReceiverAccountNumber, txn.SenderName, txn.ReceiverName,
			txn.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), dbTx, txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_AccountOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	accountID := uuid.New()
	newer := newTestTransaction(accountID)
	older := newTestTransaction(accountID)
	older.CreatedAt = newer.CreatedAt.Add(-time.Minute)

	rows := pgxmock.NewRows(txColumns())
	txRow(rows, newer)
	txRow(rows, older)

	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE account_id = \$1\s+ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(accountID, 5, 0).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), ports.TransactionQuery{AccountID: accountID, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, "Lee", got[0].ReceiverName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_AllFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	accountID := uuid.New()
	cardID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

	usage := newTestTransaction(accountID)
	usage.TransactionType = domain.TransactionTypeCardUsage
	usage.CardID = &cardID

	mock.ExpectQuery(`account_id = \$1 AND card_id = \$2 AND transaction_type = ANY\(\$3\) AND created_at >= \$4 AND created_at <= \$5`).
		WithArgs(accountID, cardID, []string{"CARD_USAGE"}, from, to, 5, 15).
		WillReturnRows(txRow(pgxmock.NewRows(txColumns()), usage))

	got, err := repo.List(context.Background(), ports.TransactionQuery{
		AccountID: accountID,
		CardID:    &cardID,
		Types:     []domain.TransactionType{domain.TransactionTypeCardUsage},
		From:      &from,
		To:        &to,
		Page:      3,
		PageSize:  5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].CardID)
	assert.Equal(t, cardID, *got[0].CardID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_PastLastPage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	accountID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(accountID, 5, 500).
		WillReturnRows(pgxmock.NewRows(txColumns()))

	got, err := repo.List(context.Background(), ports.TransactionQuery{AccountID: accountID, Page: 100, PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_HugePageIsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	// No query is expected: the offset would overflow.
	got, err := repo.List(context.Background(), ports.TransactionQuery{
		AccountID: uuid.New(),
		Page:      hugePage,
		PageSize:  5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
