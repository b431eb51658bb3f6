package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAccountsPerMember caps how many accounts a single member may own.
	MaxAccountsPerMember = 10
	// AccountNumberLength is the number of decimal digits in an account number.
	AccountNumberLength = 12
	// PinLength is the number of decimal digits in an account or card PIN.
	PinLength = 4
)

// Account is a member's deposit account. Balance is in the smallest currency unit.
type Account struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	Balance       int64     `json:"balance"`
	PinHash       string    `json:"-"` // Never expose
	MemberID      uuid.UUID `json:"member_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanDebit reports whether amount can leave the account without going negative.
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance-amount >= 0
}

// IsClosable returns true if the account holds no funds.
func (a *Account) IsClosable() bool {
	return a.Balance == 0
}

// ValidPin reports whether pin is exactly PinLength ASCII digits.
func ValidPin(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}
