package util

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidateAmount checks that an expense amount is strictly positive and
// below the sanity ceiling.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(decimal.New(1, 8)) { // 10^8, past decimal(10,2)
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ParseDate parses a date string in YYYY-MM-DD form.
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t, nil
}

// ValidateCurrency checks a 3-letter uppercase currency code.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", code)
	}
	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return fmt.Errorf("currency must be uppercase letters, got %q", code)
		}
	}
	return nil
}

// ValidateName checks a non-empty name within column limits.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if len(name) > 50 {
		return fmt.Errorf("name too long, max 50 characters")
	}
	return nil
}
