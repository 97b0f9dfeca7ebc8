package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "-57.50", want: "-57.5"},
		{input: " 100 ", want: "100"},
		{input: "1,5", wantErr: true},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), got.String())
		})
	}
}

func TestParseCommaDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "1500,00", want: "1500"},
		{input: "-1 500,25", want: "-1500.25"},
		{input: "1 000,10", want: "1000.1"},
		{input: "12.5", want: "12.5"},
		{input: "1.500,00", wantErr: true},
		{input: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommaDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), got.String())
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsSignedAmount("1500,00"))
	assert.True(t, IsSignedAmount("-12.5"))
	assert.True(t, IsSignedAmount("7"))
	assert.False(t, IsSignedAmount("+7"))
	assert.False(t, IsSignedAmount("1 500,00"))
	assert.False(t, IsSignedAmount("12,"))

	assert.True(t, IsCurrencyCode("HUF"))
	assert.True(t, IsCurrencyCode("eur"))
	assert.False(t, IsCurrencyCode("HU"))
	assert.False(t, IsCurrencyCode("FT1"))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "EUR", NormalizeCurrency(" eur ", "HUF"))
	assert.Equal(t, "HUF", NormalizeCurrency("", "HUF"))
	assert.Equal(t, "HUF", NormalizeCurrency("   ", "HUF"))
}

func TestParseRange(t *testing.T) {
	lo, hi, err := ParseRange("-400000,-100000")
	require.NoError(t, err)
	assert.True(t, lo.Equal(decimal.NewFromInt(-400000)))
	assert.True(t, hi.Equal(decimal.NewFromInt(-100000)))

	assert.True(t, InRange(decimal.NewFromInt(-400000), lo, hi))
	assert.True(t, InRange(decimal.NewFromInt(-100000), lo, hi))
	assert.False(t, InRange(decimal.NewFromInt(-99999), lo, hi))

	for _, bad := range []string{"", "10", "1,2,3", "a,b", "1,"} {
		_, _, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}
}
