package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// CardNumberLength is the number of decimal digits in a card number.
	CardNumberLength = 16
	// MinCardOpeningBalance is the linked account balance required to issue a card.
	MinCardOpeningBalance int64 = 500_000

	MinCardLimit       int64 = 1_000
	MaxCardLimit       int64 = 10_000_000
	MinBillingDay            = 1
	MaxBillingDay            = 31
	MinExpirationYears       = 1
	MaxExpirationYears       = 5
)

var (
	ErrCardLimitOutOfRange  = errors.New("limit amount must be between 1,000 and 10,000,000")
	ErrBillingDayOutOfRange = errors.New("billing day must be between 1 and 31")
	ErrExpirationOutOfRange = errors.New("expiration years must be between 1 and 5")
)

// CreditCard is a revolving card linked to exactly one account.
// UsageAmount is the outstanding liability; it never exceeds LimitAmount.
type CreditCard struct {
	ID          uuid.UUID `json:"id"`
	CardNumber  string    `json:"card_number"`
	PinHash     string    `json:"-"` // Never expose
	OwnerName   string    `json:"owner_name"`
	UsageAmount int64     `json:"usage_amount"`
	LimitAmount int64     `json:"limit_amount"`
	BillingDay  int       `json:"billing_day"`
	ExpiresAt   time.Time `json:"expires_at"`
	Available   bool      `json:"available"`
	Settled     bool      `json:"settled"`
	AccountID   uuid.UUID `json:"account_id"`
	MemberID    uuid.UUID `json:"member_id"`

	// LastSettledAt is stamped by the billing-day sweep only.
	LastSettledAt *time.Time `json:"last_settled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ValidateCardTerms checks the issuance terms of a new card.
func ValidateCardTerms(limitAmount int64, billingDay, expirationYears int) error {
	if limitAmount < MinCardLimit || limitAmount > MaxCardLimit {
		return ErrCardLimitOutOfRange
	}
	if billingDay < MinBillingDay || billingDay > MaxBillingDay {
		return ErrBillingDayOutOfRange
	}
	if expirationYears < MinExpirationYears || expirationYears > MaxExpirationYears {
		return ErrExpirationOutOfRange
	}
	return nil
}

// IsExpired returns true once now reaches the expiration timestamp.
func (c *CreditCard) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CanCharge reports whether amount fits under the remaining limit.
func (c *CreditCard) CanCharge(amount int64) bool {
	return amount <= c.LimitAmount-c.UsageAmount
}

// Charge accrues amount as outstanding usage. Callers check CanCharge first.
func (c *CreditCard) Charge(amount int64) {
	c.UsageAmount += amount
	c.Settled = false
}

// Pay reduces outstanding usage. Paying the card down to zero settles it
// and re-enables a card stopped by a failed settlement.
func (c *CreditCard) Pay(amount int64) {
	c.UsageAmount -= amount
	if c.UsageAmount == 0 {
		c.Settled = true
		c.Available = true
	}
}

// IsDeletable returns true when nothing is owed and the card is in good standing.
func (c *CreditCard) IsDeletable() bool {
	return c.Settled && c.Available && c.UsageAmount == 0
}

// IsBillingDay reports whether today is this card's settlement day.
func (c *CreditCard) IsBillingDay(today time.Time) bool {
	return EffectiveBillingDay(c.BillingDay, today) == today.Day()
}

// SettledOn reports whether the sweep already processed the card on today's date.
func (c *CreditCard) SettledOn(today time.Time) bool {
	if c.LastSettledAt == nil {
		return false
	}
	p := c.LastSettledAt.In(today.Location())
	return p.Year() == today.Year() && p.YearDay() == today.YearDay()
}

// EffectiveBillingDay clamps billingDay to the last day of the month containing t,
// so a card billed on the 31st settles on the 30th in a 30-day month.
func EffectiveBillingDay(billingDay int, t time.Time) int {
	if last := DaysInMonth(t); billingDay > last {
		return last
	}
	return billingDay
}

// BillingDaysFor returns the billing days that fall due on today. On the
// last day of a short month this includes every later day up to 31.
func BillingDaysFor(today time.Time) []int {
	day := today.Day()
	if day < DaysInMonth(today) {
		return []int{day}
	}
	days := make([]int, 0, MaxBillingDay-day+1)
	for d := day; d <= MaxBillingDay; d++ {
		days = append(days, d)
	}
	return days
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// SettlementOutcome is the effect of one billing-day collection.
type SettlementOutcome struct {
	Collected      int64
	NewBalance     int64
	RemainingUsage int64
	FullyPaid      bool
}

// ComputeSettlement collects min(balance, usage) from the account.
// A shortfall leaves the uncollected remainder as outstanding usage.
func ComputeSettlement(balance, usage int64) SettlementOutcome {
	collected := usage
	if balance < usage {
		collected = balance
	}
	return SettlementOutcome{
		Collected:      collected,
		NewBalance:     balance - collected,
		RemainingUsage: usage - collected,
		FullyPaid:      collected == usage,
	}
}

// ApplySettlement records a settlement outcome on the card.
// A shortfall stops the card until it is paid down.
func (c *CreditCard) ApplySettlement(o SettlementOutcome, at time.Time) {
	c.UsageAmount = o.RemainingUsage
	c.LastSettledAt = &at
	if o.FullyPaid {
		c.Settled = true
		return
	}
	c.Available = false
}
