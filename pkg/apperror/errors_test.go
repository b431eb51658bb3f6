package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("ACC_002", "Insufficient account balance", http.StatusUnprocessableEntity),
			expected: "[ACC_002] Insufficient account balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("ACC_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "CARD_003", CodeOf(ErrLimitExceeded()))
	assert.Equal(t, "CARD_003", CodeOf(fmt.Errorf("charge: %w", ErrLimitExceeded())))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestAccountErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"AccountNotFound", ErrAccountNotFound(), "ACC_001", 404},
		{"InsufficientBalance", ErrInsufficientBalance(), "ACC_002", 422},
		{"InvalidAmount", ErrInvalidAmount(), "ACC_003", 400},
		{"BalanceNonZero", ErrBalanceNonZero(), "ACC_004", 409},
		{"AccountLimitExceeded", ErrAccountLimitExceeded(), "ACC_005", 409},
		{"InvalidPinFormat", ErrInvalidPinFormat(), "ACC_006", 400},
		{"AccountNumberExhausted", ErrAccountNumberExhausted(), "ACC_007", 503},
		{"CardLinked", ErrCardLinked(), "ACC_008", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestTransferErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"SendAccountNotFound", ErrSendAccountNotFound(), "TRF_001", 404},
		{"ReceiveAccountNotFound", ErrReceiveAccountNotFound(), "TRF_002", 404},
		{"SameAccountTransfer", ErrSameAccountTransfer(), "TRF_003", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestCardErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"CardNotFound", ErrCardNotFound(), "CARD_001", 404},
		{"CardStopped", ErrCardStopped(), "CARD_002", 403},
		{"LimitExceeded", ErrLimitExceeded(), "CARD_003", 422},
		{"AmountExceedsUsage", ErrAmountExceedsUsage(), "CARD_004", 422},
		{"DuplicateCard", ErrDuplicateCardForAccount(), "CARD_005", 409},
		{"InsufficientMinimumBalance", ErrInsufficientMinimumBalance(), "CARD_006", 422},
		{"CardNotDeletable", ErrCardNotDeletable(), "CARD_007", 409},
		{"InvalidCardTerms", ErrInvalidCardTerms("bad limit"), "CARD_008", 400},
		{"CardExpired", ErrCardExpired(), "CARD_009", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"EmailExists", ErrEmailExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"MemberNotFound", ErrMemberNotFound(), "AUTH_004", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	lockErr := ErrLockTimeout(inner)
	assert.Equal(t, "SYS_002", lockErr.Code)
	assert.Equal(t, 503, lockErr.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestValidation(t *testing.T) {
	err := Validation("page must be >= 0")
	assert.Equal(t, "VAL_001", err.Code)
	assert.Equal(t, "page must be >= 0", err.Message)
	assert.Equal(t, 400, err.HTTPStatus)
}
