package money

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every monetary value is kept at.
const Scale = 2

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round normalizes an amount to two decimal places, rounding halves away
// from zero. Every derived monetary value in the system passes through here
// so that stored and recomputed totals always agree.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// MulQty returns the rounded product of a unit price and a quantity.
func MulQty(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(qty))))
}

// Percent returns the rounded percentage of a base amount.
func Percent(base, percent decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(percent).Div(decimal.NewFromInt(100)))
}

// ClampNonNegative floors an amount at zero.
func ClampNonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return Zero
	}
	return amount
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
