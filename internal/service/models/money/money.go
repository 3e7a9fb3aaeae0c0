package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrNegativeTotal  = errors.New("computed total is negative")
)

// Zero is the zero monetary amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// LineTotal computes the total for a single order line:
// unitPrice * quantity - discount + tax.
func LineTotal(unitPrice decimal.Decimal, quantity int, discount, tax decimal.Decimal) decimal.Decimal {
	return unitPrice.
		Mul(decimal.NewFromInt(int64(quantity))).
		Sub(discount).
		Add(tax)
}

// OrderTotal computes the order total: subtotal - discount + tax + shipping.
// A discount may pull the total below the subtotal, but a total below zero is
// a data error and is reported to the caller instead of being clamped.
func OrderTotal(subtotal, discount, tax, shipping decimal.Decimal) (decimal.Decimal, error) {
	total := subtotal.Sub(discount).Add(tax).Add(shipping)
	if total.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeTotal, total.String())
	}

	return total, nil
}

// RequireNonNegative validates that a monetary field is >= 0.
func RequireNonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s = %s", ErrNegativeAmount, field, amount.String())
	}

	return nil
}
