package dto

// RegisterRequest is the request body for member registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=50"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
}

// LoginRequest is the request body for member login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// MemberResponse is the public view of a member.
type MemberResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CreateAccountRequest is the request body for opening an account.
type CreateAccountRequest struct {
	Pin string `json:"pin" binding:"required,pin"`
}

// AmountRequest is the request body for deposits and withdrawals.
type AmountRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Pin    string `json:"pin" binding:"required,pin"`
}

// PinRequest carries only a PIN, e.g. for closing an account.
type PinRequest struct {
	Pin string `json:"pin" binding:"required,pin"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
	CreatedAt     string `json:"created_at"`
}

// CloseAccountResponse confirms an account deletion.
type CloseAccountResponse struct {
	AccountNumber string `json:"account_number"`
}

// HistoryRequest is the request body for an account transaction query.
// From and To are calendar dates (YYYY-MM-DD), both optional.
type HistoryRequest struct {
	Pin   string   `json:"pin" binding:"required,pin"`
	Types []string `json:"types" binding:"omitempty,dive,required"`
	From  string   `json:"from" binding:"omitempty,datetime=2006-01-02"`
	To    string   `json:"to" binding:"omitempty,datetime=2006-01-02"`
	Page  int      `json:"page" binding:"gte=0"`
}

// TransferRequest is the request body for a transfer.
type TransferRequest struct {
	FromAccountNumber string `json:"from_account_number" binding:"required,account_number"`
	ToAccountNumber   string `json:"to_account_number" binding:"required,account_number"`
	Amount            int64  `json:"amount" binding:"required,gt=0"`
	Pin               string `json:"pin" binding:"required,pin"`
}

// TransactionResponse is the public view of a ledger entry.
type TransactionResponse struct {
	ID                    string `json:"id"`
	TransactionType       string `json:"transaction_type"`
	AccountNumber         string `json:"account_number"`
	Amount                int64  `json:"amount"`
	ResultingBalance      int64  `json:"resulting_balance"`
	SenderAccountNumber   string `json:"sender_account_number,omitempty"`
	ReceiverAccountNumber string `json:"receiver_account_number,omitempty"`
	SenderName            string `json:"sender_name,omitempty"`
	ReceiverName          string `json:"receiver_name,omitempty"`
	CreatedAt             string `json:"created_at"`
}

// CreateCardRequest is the request body for issuing a credit card.
// Range checks on the terms happen in the service so they map to CARD_008.
type CreateCardRequest struct {
	AccountNumber   string `json:"account_number" binding:"required,account_number"`
	AccountPin      string `json:"account_pin" binding:"required,pin"`
	CardPin         string `json:"card_pin" binding:"required,pin"`
	LimitAmount     int64  `json:"limit_amount" binding:"required"`
	BillingDay      int    `json:"billing_day" binding:"required"`
	ExpirationYears int    `json:"expiration_years" binding:"required"`
}

// CardAmountRequest is the request body for charges and immediate payments.
type CardAmountRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Pin    string `json:"pin" binding:"required,pin"`
}

// DeleteCardRequest verifies both the card and the linked account PIN.
type DeleteCardRequest struct {
	CardPin    string `json:"card_pin" binding:"required,pin"`
	AccountPin string `json:"account_pin" binding:"required,pin"`
}

// CardsByAccountRequest lists cards linked to one account.
type CardsByAccountRequest struct {
	AccountNumber string `json:"account_number" binding:"required,account_number"`
	Pin           string `json:"pin" binding:"required,pin"`
	Page          int    `json:"page" binding:"gte=0"`
}

// CardHistoryRequest is the request body for a card usage query.
type CardHistoryRequest struct {
	Pin  string `json:"pin" binding:"required,pin"`
	From string `json:"from" binding:"required,datetime=2006-01-02"`
	To   string `json:"to" binding:"required,datetime=2006-01-02"`
	Page int    `json:"page" binding:"gte=0"`
}

// CardResponse is the public view of a credit card.
type CardResponse struct {
	CardNumber    string  `json:"card_number"`
	OwnerName     string  `json:"owner_name"`
	UsageAmount   int64   `json:"usage_amount"`
	LimitAmount   int64   `json:"limit_amount"`
	BillingDay    int     `json:"billing_day"`
	ExpiresAt     string  `json:"expires_at"`
	Available     bool    `json:"available"`
	Settled       bool    `json:"settled"`
	LastSettledAt *string `json:"last_settled_at,omitempty"`
}

// DeleteCardResponse confirms a card deletion.
type DeleteCardResponse struct {
	CardNumber string `json:"card_number"`
}
