package money

import "github.com/shopspring/decimal"

// Round normalizes a currency amount to two decimal places using half-up
// semantics. It is applied exactly once per stored amount; derived values
// (net = gross - commission) are never re-rounded so sums stay exact.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FromFloat converts a float into a two-decimal currency amount.
func FromFloat(value float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(value))
}

// IsPositive reports whether the amount is strictly greater than zero.
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}
