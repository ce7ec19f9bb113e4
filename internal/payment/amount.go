package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("payment: invalid amount")

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"ISK": true,
}

// FractionDigits returns the minor unit exponent for an ISO 4217 code.
func FractionDigits(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMinorUnits converts a decimal amount string like "10.50" to 1050.
// Amounts with more precision than the currency allows are rejected.
func ToMinorUnits(amount, currency string) (int64, error) {
	a, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !a.IsPositive() {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, amount)
	}
	minor := a.Shift(FractionDigits(currency))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has too many decimals for %s", ErrInvalidAmount, amount, currency)
	}
	return minor.IntPart(), nil
}

// FormatMinorUnits renders minor units back as a fixed decimal string.
func FormatMinorUnits(cents int64, currency string) string {
	digits := FractionDigits(currency)
	return decimal.New(cents, -digits).StringFixed(digits)
}
