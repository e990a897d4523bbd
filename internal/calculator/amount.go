package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount computes the total owed for count sessions at price per session,
// rounded half-up to two decimal places.
func Amount(price decimal.Decimal, count int) (decimal.Decimal, error) {
	sub, err := Subtotal(price, count)
	if err != nil {
		return decimal.Zero, err
	}
	// Round is half away from zero, which is half-up for non-negative values.
	return sub.Round(2), nil
}

// Subtotal is price times count without rounding. Sums of subtotals are
// rounded once, at the end.
func Subtotal(price decimal.Decimal, count int) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price cannot be negative: %s", ErrInvalidInput, price)
	}
	if count < 0 {
		return decimal.Zero, fmt.Errorf("%w: session count cannot be negative: %d", ErrInvalidInput, count)
	}
	return price.Mul(decimal.NewFromInt(int64(count))), nil
}
