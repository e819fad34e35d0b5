package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEstimate(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		origin, dest   string
		icms, pis, cof string
	}{
		{"interstate", "50000", "SP", "RS", "6000", "825", "3800"},
		{"intrastate", "50000", "RS", "RS", "3500", "825", "3800"},
		{"case sensitive comparison", "100", "rs", "RS", "12", "1.65", "7.6"},
		{"whitespace is not trimmed", "100", "RS ", "RS", "12", "1.65", "7.6"},
		{"zero value", "0", "SP", "SP", "0", "0", "0"},
		{"fractional value", "1234.56", "MG", "BA", "148.1472", "20.37024", "93.82656"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Estimate(d(tt.value), tt.origin, tt.dest)
			assert.True(t, d(tt.icms).Equal(b.ICMS), "icms = %s", b.ICMS)
			assert.True(t, d(tt.pis).Equal(b.PIS), "pis = %s", b.PIS)
			assert.True(t, d(tt.cof).Equal(b.COFINS), "cofins = %s", b.COFINS)
		})
	}
}

func TestEstimate_RatesHoldForAnyValue(t *testing.T) {
	for _, v := range []string{"1", "99.99", "50000", "1000000.01"} {
		value := d(v)
		same := Estimate(value, "PR", "PR")
		diff := Estimate(value, "PR", "SC")

		assert.True(t, value.Mul(d("0.07")).Equal(same.ICMS))
		assert.True(t, value.Mul(d("0.12")).Equal(diff.ICMS))
		assert.True(t, value.Mul(d("0.0165")).Equal(same.PIS))
		assert.True(t, value.Mul(d("0.0165")).Equal(diff.PIS))
		assert.True(t, value.Mul(d("0.076")).Equal(same.COFINS))
		assert.True(t, value.Mul(d("0.076")).Equal(diff.COFINS))
	}
}

func TestBreakdown_Total(t *testing.T) {
	b := Estimate(d("50000"), "SP", "RS")
	assert.True(t, d("10625").Equal(b.Total()), "total = %s", b.Total())
}
