package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf returns the AppError code carried by err, or "" if err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Accounts (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrInsufficientBalance() *AppError {
	return New("ACC_002", "Insufficient account balance", http.StatusUnprocessableEntity)
}

func ErrInvalidAmount() *AppError {
	return New("ACC_003", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrBalanceNonZero() *AppError {
	return New("ACC_004", "Account balance must be zero to close the account", http.StatusConflict)
}

func ErrAccountLimitExceeded() *AppError {
	return New("ACC_005", "Member already owns the maximum number of accounts", http.StatusConflict)
}

func ErrInvalidPinFormat() *AppError {
	return New("ACC_006", "PIN must be exactly 4 digits", http.StatusBadRequest)
}

func ErrAccountNumberExhausted() *AppError {
	return New("ACC_007", "Could not allocate a unique account number", http.StatusServiceUnavailable)
}

func ErrCardLinked() *AppError {
	return New("ACC_008", "Account still has a linked credit card", http.StatusConflict)
}

// ---- Transfers (TRF) ----

func ErrSendAccountNotFound() *AppError {
	return New("TRF_001", "Sending account not found", http.StatusNotFound)
}

func ErrReceiveAccountNotFound() *AppError {
	return New("TRF_002", "Receiving account not found", http.StatusNotFound)
}

func ErrSameAccountTransfer() *AppError {
	return New("TRF_003", "Sending and receiving accounts must differ", http.StatusBadRequest)
}

// ---- Credit cards (CARD) ----

func ErrCardNotFound() *AppError {
	return New("CARD_001", "Card not found", http.StatusNotFound)
}

func ErrCardStopped() *AppError {
	return New("CARD_002", "Card is stopped", http.StatusForbidden)
}

func ErrLimitExceeded() *AppError {
	return New("CARD_003", "Card limit exceeded", http.StatusUnprocessableEntity)
}

func ErrAmountExceedsUsage() *AppError {
	return New("CARD_004", "Payment amount exceeds outstanding card usage", http.StatusUnprocessableEntity)
}

func ErrDuplicateCardForAccount() *AppError {
	return New("CARD_005", "Account already has a credit card", http.StatusConflict)
}

func ErrInsufficientMinimumBalance() *AppError {
	return New("CARD_006", "Account balance is below the minimum required to open a card", http.StatusUnprocessableEntity)
}

func ErrCardNotDeletable() *AppError {
	return New("CARD_007", "Card has outstanding usage or is stopped", http.StatusConflict)
}

func ErrInvalidCardTerms(message string) *AppError {
	return New("CARD_008", message, http.StatusBadRequest)
}

func ErrCardExpired() *AppError {
	return New("CARD_009", "Card has expired", http.StatusForbidden)
}

func ErrCardNumberExhausted() *AppError {
	return New("CARD_010", "Could not allocate a unique card number", http.StatusServiceUnavailable)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrMemberNotFound() *AppError {
	return New("AUTH_004", "Member not found", http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
