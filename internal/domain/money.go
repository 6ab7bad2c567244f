package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal amount into minor units. The value must be
// strictly positive and carry at most two fractional digits.
func ParseAmount(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() {
		return 0, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	minor := d.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a two-decimal string, e.g. 30000 -> "300.00".
func FormatAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// FormatMoney renders minor units with the currency symbol, e.g. "₦300.00".
func FormatMoney(minor int64, c Currency) string {
	return c.Symbol() + FormatAmount(minor)
}
