package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransferRate_Contains(t *testing.T) {
	rate := TransferRate{MinAmount: d("10"), MaxAmount: decimal.NewNullDecimal(d("1000"))}

	assert.True(t, rate.Contains(d("10")), "min is inclusive")
	assert.True(t, rate.Contains(d("1000")), "max is inclusive")
	assert.False(t, rate.Contains(d("9.99")))
	assert.False(t, rate.Contains(d("1000.01")))

	unbounded := TransferRate{MinAmount: d("0")}
	assert.True(t, unbounded.Contains(d("1000000000")))
}

func TestApplicableRates_Ordering(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rates := []TransferRate{
		{ID: 1, Active: true, MinAmount: d("0"), UpdatedAt: base, CreatedAt: base},
		{ID: 2, Active: true, MinAmount: d("0"), UpdatedAt: base.Add(time.Hour), CreatedAt: base},
		{ID: 3, Active: false, MinAmount: d("0"), Priority: 10, UpdatedAt: base, CreatedAt: base},
		{ID: 4, Active: true, MinAmount: d("500"), Priority: 10, UpdatedAt: base, CreatedAt: base},
		{ID: 5, Active: true, MinAmount: d("0"), Priority: 1, UpdatedAt: base, CreatedAt: base},
		{ID: 6, Active: true, MinAmount: d("0"), UpdatedAt: base.Add(time.Hour), CreatedAt: base},
	}

	got := ApplicableRates(rates, d("100"))
	ids := make([]int64, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}

	// inactive (3) and out of bounds (4) are dropped; priority wins, then
	// updated_at, then id.
	assert.Equal(t, []int64{5, 6, 2, 1}, ids)
}

func TestTransferRate_Validate(t *testing.T) {
	valid := TransferRate{
		Scope:              CorridorScope(1, 2),
		BaseFee:            d("5"),
		PercentageFee:      d("2"),
		ExchangeRateMargin: d("1"),
		MinAmount:          d("0"),
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *TransferRate)
	}{
		{"negative base fee", func(r *TransferRate) { r.BaseFee = d("-1") }},
		{"negative percentage", func(r *TransferRate) { r.PercentageFee = d("-0.5") }},
		{"margin of 100", func(r *TransferRate) { r.ExchangeRateMargin = d("100") }},
		{"max below min", func(r *TransferRate) {
			r.MinAmount = d("50")
			r.MaxAmount = decimal.NewNullDecimal(d("10"))
		}},
		{"default outside global", func(r *TransferRate) { r.IsDefault = true }},
		{"corridor to self", func(r *TransferRate) { r.Scope = CorridorScope(3, 3) }},
		{"country without id", func(r *TransferRate) { r.Scope = RateScope{Kind: ScopeCountry} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestRateScope_Key(t *testing.T) {
	assert.Equal(t, "global", GlobalScope().Key())
	assert.Equal(t, "country:7", CountryScope(7).Key())
	assert.Equal(t, "corridor:1:2", CorridorScope(1, 2).Key())
}
