package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of monetary event.
type TransactionType string

const (
	TransactionTypeDeposit              TransactionType = "DEPOSIT"
	TransactionTypeWithdraw             TransactionType = "WITHDRAW"
	TransactionTypeTransferSend         TransactionType = "TRANSFER_SEND"
	TransactionTypeTransferReceive      TransactionType = "TRANSFER_RECEIVE"
	TransactionTypeCardUsage            TransactionType = "CARD_USAGE"
	TransactionTypeCardSettlement       TransactionType = "CARD_MONTHLY_SETTLEMENT"
	TransactionTypeCardImmediatePayment TransactionType = "CARD_IMMEDIATE_PAYMENT"
)

var transactionTypes = map[TransactionType]struct{}{
	TransactionTypeDeposit:              {},
	TransactionTypeWithdraw:             {},
	TransactionTypeTransferSend:         {},
	TransactionTypeTransferReceive:      {},
	TransactionTypeCardUsage:            {},
	TransactionTypeCardSettlement:       {},
	TransactionTypeCardImmediatePayment: {},
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// IsCardEvent returns true for events produced by a credit card.
func (t TransactionType) IsCardEvent() bool {
	return t == TransactionTypeCardUsage ||
		t == TransactionTypeCardSettlement ||
		t == TransactionTypeCardImmediatePayment
}

// Transaction is an immutable ledger entry on one account.
// ResultingBalance is the account balance right after the event.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	AccountNumber    string          `json:"account_number"`
	CardID           *uuid.UUID      `json:"card_id,omitempty"`
	TransactionType  TransactionType `json:"transaction_type"`
	Amount           int64           `json:"amount"`
	ResultingBalance int64           `json:"resulting_balance"`

	// Transfer counterparties; empty for non-transfer events.
	SenderAccountNumber   string    `json:"sender_account_number,omitempty"`
	ReceiverAccountNumber string    `json:"receiver_account_number,omitempty"`
	SenderName            string    `json:"sender_name,omitempty"`
	ReceiverName          string    `json:"receiver_name,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewTransaction builds a ledger entry for acct stamped with at.
func NewTransaction(acct *Account, typ TransactionType, amount int64, at time.Time) *Transaction {
	return &Transaction{
		ID:               uuid.New(),
		AccountID:        acct.ID,
		AccountNumber:    acct.AccountNumber,
		TransactionType:  typ,
		Amount:           amount,
		ResultingBalance: acct.Balance,
		CreatedAt:        at,
	}
}
