package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money arithmetic stays in decimal end to end. Intermediate sums keep full
// precision; Round2 is applied only where an amount leaves the system (an
// order column, an API payload).

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// FromString parses a decimal amount, rejecting negative values.
func FromString(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", value)
	}
	return d, nil
}

// Round2 rounds half-up to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Percent computes pct percent of amount, rounded to two places.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(decimal.NewFromInt(100)))
}

// Times multiplies a unit amount by a quantity without rounding.
func Times(amount decimal.Decimal, qty int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(qty)))
}
