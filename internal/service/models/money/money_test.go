package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	total := LineTotal(d("10.00"), 2, d("1.50"), d("0.75"))
	assert.True(t, total.Equal(d("19.25")), "got %s", total)
}

func TestLineTotalNoBinaryRounding(t *testing.T) {
	// 0.1 * 3 must be exactly 0.3, not 0.30000000000000004.
	total := LineTotal(d("0.1"), 3, decimal.Zero, decimal.Zero)
	assert.True(t, total.Equal(d("0.3")), "got %s", total)
}

func TestOrderTotal(t *testing.T) {
	total, err := OrderTotal(d("25.00"), d("0"), d("1.00"), d("0"))
	require.NoError(t, err)
	assert.True(t, total.Equal(d("26.00")), "got %s", total)
}

func TestOrderTotalDiscountBelowSubtotal(t *testing.T) {
	total, err := OrderTotal(d("10.00"), d("8.00"), d("0.50"), d("0"))
	require.NoError(t, err)
	assert.True(t, total.Equal(d("2.50")), "got %s", total)
}

func TestOrderTotalNegativeRejected(t *testing.T) {
	_, err := OrderTotal(d("10.00"), d("20.00"), d("0"), d("0"))
	require.ErrorIs(t, err, ErrNegativeTotal)
}

func TestRequireNonNegative(t *testing.T) {
	require.NoError(t, RequireNonNegative("tax", d("0")))
	require.NoError(t, RequireNonNegative("tax", d("3.99")))
	require.ErrorIs(t, RequireNonNegative("tax", d("-0.01")), ErrNegativeAmount)
}
