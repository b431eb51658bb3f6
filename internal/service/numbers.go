package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"fintech-ledger/internal/core/domain"
)

const (
	// maxNumberAttempts bounds collision retries when allocating account or card numbers.
	maxNumberAttempts = 10
	// cardNumberPrefix is the issuer prefix of every card number.
	cardNumberPrefix = "9410"
)

// randomDigits returns n uniformly distributed decimal digits from crypto/rand.
func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	buf := make([]byte, n)
	for b.Len() < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, c := range buf {
			// 250 is the largest multiple of 10 below 256; rejecting above it removes modulo bias.
			if c >= 250 {
				continue
			}
			b.WriteByte('0' + c%10)
			if b.Len() == n {
				break
			}
		}
	}
	return b.String(), nil
}

// generateAccountNumber returns a random 12-digit account number.
func generateAccountNumber() (string, error) {
	return randomDigits(domain.AccountNumberLength)
}

// generateCardNumber returns a 16-digit card number: issuer prefix,
// random body and a Luhn check digit.
func generateCardNumber() (string, error) {
	body, err := randomDigits(domain.CardNumberLength - len(cardNumberPrefix) - 1)
	if err != nil {
		return "", err
	}
	payload := cardNumberPrefix + body
	return payload + string(luhnCheckDigit(payload)), nil
}

// luhnCheckDigit computes the check digit to append to payload.
func luhnCheckDigit(payload string) byte {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}

// luhnValid reports whether number carries a correct Luhn check digit.
func luhnValid(number string) bool {
	if len(number) < 2 {
		return false
	}
	return luhnCheckDigit(number[:len(number)-1]) == number[len(number)-1]
}

// allocateNumber draws numbers from gen until exists reports one unused.
// ok is false when every attempt collided.
func allocateNumber(
	ctx context.Context,
	gen func() (string, error),
	exists func(ctx context.Context, number string) (bool, error),
) (number string, ok bool, err error) {
	for i := 0; i < maxNumberAttempts; i++ {
		candidate, err := gen()
		if err != nil {
			return "", false, err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", false, err
		}
		if !taken {
			return candidate, true, nil
		}
	}
	return "", false, nil
}
