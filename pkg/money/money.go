package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FromCents converts an integer cent amount into a decimal major-unit value.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// ToCents rounds a decimal major-unit value to whole cents. Rounding
// happens only here, at the presentation/charge boundary, never
// mid-computation.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// PercentOfCents computes percent% of an integer cent amount, rounded to
// whole cents.
func PercentOfCents(cents int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).
		Mul(percent).
		Div(hundred).
		Round(0).
		IntPart()
}
