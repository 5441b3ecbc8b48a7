package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/dian-processor/internal/decimal"
)

func TestFromInt(t *testing.T) {
	d := decimal.FromInt(100000)
	assert.True(t, d.Equal(dec.NewFromInt(100000)))
}

func TestFromFloat(t *testing.T) {
	d := decimal.FromFloat(100.555)
	// Should round to 2 decimal places
	assert.True(t, d.Equal(dec.NewFromFloat(100.56)))
}

func TestFromString(t *testing.T) {
	d, err := decimal.FromString("123456.78")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec.RequireFromString("123456.78")))

	_, err = decimal.FromString("not-a-number")
	require.Error(t, err)
}

func TestFromAmountString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain amount", "119000.00", "119000.00"},
		{"thousands commas", "1,234,567.89", "1234567.89"},
		{"whitespace", "  19000 ", "19000"},
		{"empty", "", "0"},
		{"garbage", "N/A", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decimal.FromAmountString(tt.input)
			assert.True(t, result.Equal(dec.RequireFromString(tt.expected)),
				"input=%q: got %s, want %s", tt.input, result.String(), tt.expected)
		})
	}
}

func TestMul(t *testing.T) {
	a := dec.NewFromInt(100)
	b := dec.NewFromFloat(0.15)
	result := decimal.Mul(a, b)
	assert.True(t, result.Equal(dec.NewFromInt(15)))
}

func TestDiv(t *testing.T) {
	a := dec.NewFromInt(100)
	b := dec.NewFromInt(3)
	result := decimal.Div(a, b)
	assert.True(t, result.Equal(dec.RequireFromString("33.33")))

	// Division by zero returns zero
	result = decimal.Div(a, dec.Zero)
	assert.True(t, result.IsZero())
}

func TestCalculateIVA(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		rate     string
		expected int64
	}{
		{"19% of 100000", 100000, "19", 19000},
		{"5% of 1000000", 1000000, "5", 50000},
		{"0% of 1000000", 1000000, "0", 0},
		{"19% of 999999 (rounds to nearest)", 999999, "19", 190000},
		{"19% of 555555", 555555, "19", 105555}, // rounds to nearest peso
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := dec.NewFromInt(tt.base)
			rate := dec.RequireFromString(tt.rate)
			result := decimal.CalculateIVA(base, rate)
			expected := dec.NewFromInt(tt.expected)

			assert.True(t, result.Equal(expected),
				"base=%d, rate=%s%%: got %s, want %d",
				tt.base, tt.rate, result.String(), tt.expected)
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	amount := dec.NewFromInt(500000)
	percentage := dec.NewFromInt(15)

	// 15% of 500000 = 75000
	result := decimal.CalculatePercentage(amount, percentage)
	assert.True(t, result.Equal(dec.NewFromInt(75000)))
}

func TestSum(t *testing.T) {
	values := []dec.Decimal{
		dec.NewFromInt(100),
		dec.NewFromInt(200),
		dec.NewFromInt(300),
	}
	result := decimal.Sum(values)
	assert.True(t, result.Equal(dec.NewFromInt(600)))
}

func TestSum_Empty(t *testing.T) {
	result := decimal.Sum([]dec.Decimal{})
	assert.True(t, result.IsZero())
}

func TestIsPositive(t *testing.T) {
	assert.True(t, decimal.IsPositive(dec.NewFromInt(1)))
	assert.False(t, decimal.IsPositive(dec.Zero))
	assert.False(t, decimal.IsPositive(dec.NewFromInt(-1)))
}

func TestIsNonNegative(t *testing.T) {
	assert.True(t, decimal.IsNonNegative(dec.NewFromInt(1)))
	assert.True(t, decimal.IsNonNegative(dec.Zero))
	assert.False(t, decimal.IsNonNegative(dec.NewFromInt(-1)))
}

func TestRoundCOP(t *testing.T) {
	// COP amounts carry no cents
	d := dec.RequireFromString("123456.789")
	result := decimal.RoundCOP(d)
	assert.True(t, result.Equal(dec.NewFromInt(123457))) // rounds up
}
