package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyVAT(t *testing.T) {
	tests := []struct {
		name string
		net  string
		rate string
		want string
	}{
		{"standard rate", "5.00", "0.21", "6.05"},
		{"half up boundary", "2.005", "0", "2.01"},
		{"half up after vat", "2.005", "0.21", "2.43"},
		{"zero rate", "7.50", "0", "7.50"},
		{"zero price", "0", "0.21", "0.00"},
		{"round down", "1.11", "0.21", "1.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyVAT(d(tt.net), d(tt.rate))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestVATAmount(t *testing.T) {
	assert.Equal(t, "2.10", VATAmount(d("10.00"), d("0.21")).StringFixed(2))
	assert.Equal(t, "1.05", VATAmount(d("5.00"), d("0.21")).StringFixed(2))
	// 負數也是 half away from zero
	assert.Equal(t, "-0.32", VATAmount(d("-1.50"), d("0.21")).StringFixed(2))
}

func TestApplyDiscount(t *testing.T) {
	t.Run("Fixed", func(t *testing.T) {
		assert.Equal(t, "8.50", ApplyDiscount(d("10.00"), d("1.50"), false).StringFixed(2))
	})

	t.Run("Percentage", func(t *testing.T) {
		assert.Equal(t, "9.00", ApplyDiscount(d("10.00"), d("10"), true).StringFixed(2))
		assert.Equal(t, "8.33", ApplyDiscount(d("9.99"), d("16.6"), true).StringFixed(2))
	})

	t.Run("Never negative", func(t *testing.T) {
		assert.True(t, ApplyDiscount(d("1.00"), d("5.00"), false).IsZero())
		assert.True(t, ApplyDiscount(d("1.00"), d("150"), true).IsZero())
	})
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(605), ToMinorUnits(d("6.05")))
	assert.Equal(t, int64(1028), ToMinorUnits(d("10.28")))
	assert.Equal(t, int64(201), ToMinorUnits(d("2.005")))
	assert.Equal(t, int64(0), ToMinorUnits(d("0")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "6.05", Format(d("6.05")))
	assert.Equal(t, "5.00", Format(d("5")))
	assert.Equal(t, "10.28", Format(d("10.275")))
}
