package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-gateway/internal/decimal"
)

func TestRoundAndFloor(t *testing.T) {
	tests := []struct {
		in    string
		round int64
		floor int64
	}{
		{"12.5", 13, 12},
		{"12.49", 12, 12},
		{"99.99", 100, 99},
		{"0", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := dec.RequireFromString(tt.in)
			assert.True(t, decimal.Round(d).Equal(dec.NewFromInt(tt.round)))
			assert.True(t, decimal.Floor(d).Equal(dec.NewFromInt(tt.floor)))
		})
	}
}

func TestLineAmount(t *testing.T) {
	assert.True(t, decimal.LineAmount(2, dec.NewFromInt(100)).Equal(dec.NewFromInt(200)))
	assert.True(t, decimal.LineAmount(3, dec.RequireFromString("33.5")).Equal(dec.NewFromInt(101)))
}

func TestCalculateTax(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rate     int64
		expected int64
	}{
		{"standard 5% rounds half up", 250, 5, 13},
		{"standard 5%", 1000, 5, 50},
		{"zero rate", 1000, 0, 0},
		{"special rate", 1000, 15, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decimal.CalculateTax(dec.NewFromInt(tt.amount), dec.NewFromInt(tt.rate))
			assert.True(t, result.Equal(dec.NewFromInt(tt.expected)), "got %s", result)
		})
	}
}

func TestTaxInclusive(t *testing.T) {
	assert.True(t, decimal.TaxInclusive(dec.NewFromInt(100), dec.NewFromInt(5)).Equal(dec.NewFromInt(105)))
	// 33 * 1.05 = 34.65
	assert.True(t, decimal.TaxInclusive(dec.NewFromInt(33), dec.NewFromInt(5)).Equal(dec.NewFromInt(35)))
	assert.True(t, decimal.TaxInclusive(dec.NewFromInt(40), dec.Zero).Equal(dec.NewFromInt(40)))
}

func TestProrate(t *testing.T) {
	assert.True(t, decimal.Prorate(dec.NewFromInt(200), dec.NewFromInt(250), dec.NewFromInt(263)).Equal(dec.NewFromInt(210)))
	assert.True(t, decimal.Prorate(dec.NewFromInt(1), dec.Zero, dec.NewFromInt(100)).IsZero())
}

func TestAllocate_SingleItem(t *testing.T) {
	out := decimal.Allocate(
		[]dec.Decimal{dec.NewFromInt(952)},
		[]bool{true},
		dec.NewFromInt(1000),
	)
	require.Len(t, out, 1)
	assert.True(t, out[0].Equal(dec.NewFromInt(1000)))
}

func TestAllocate_SingleTaxedAmongMixed(t *testing.T) {
	out := decimal.Allocate(
		[]dec.Decimal{dec.NewFromInt(500), dec.NewFromInt(300)},
		[]bool{true, false},
		dec.NewFromInt(525),
	)
	assert.True(t, out[0].Equal(dec.NewFromInt(525)))
	assert.True(t, out[1].Equal(dec.NewFromInt(300)), "untaxed amount is untouched")
}

func TestAllocate_ResidualIsKept(t *testing.T) {
	amounts := []dec.Decimal{dec.NewFromInt(1), dec.NewFromInt(1), dec.NewFromInt(1)}
	out := decimal.Allocate(amounts, []bool{true, true, true}, dec.NewFromInt(100))

	for _, share := range out {
		assert.True(t, share.Equal(dec.NewFromInt(33)), "got %s", share)
	}
	// 99 != 100 and stays that way
	sum := out[0].Add(out[1]).Add(out[2])
	assert.True(t, sum.Equal(dec.NewFromInt(99)))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, decimal.Percentage(0, 5))
	assert.Equal(t, 40, decimal.Percentage(2, 5))
	assert.Equal(t, 33, decimal.Percentage(1, 3))
	assert.Equal(t, 67, decimal.Percentage(2, 3))
	assert.Equal(t, 100, decimal.Percentage(3, 3))
	assert.Equal(t, 0, decimal.Percentage(1, 0))
}
