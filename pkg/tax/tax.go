// Package tax estimates ICMS, PIS and COFINS for a purchase using fixed
// average rates. It is an estimate for supplier comparison, not a tax engine.
package tax

import "github.com/shopspring/decimal"

var (
	// RateICMSInterstate applies when origin and destination UF differ.
	RateICMSInterstate = decimal.RequireFromString("0.12")
	// RateICMSIntrastate applies when origin and destination UF are equal.
	RateICMSIntrastate = decimal.RequireFromString("0.07")
	RatePIS            = decimal.RequireFromString("0.0165")
	RateCOFINS         = decimal.RequireFromString("0.076")
)

// Breakdown is the estimated tax split for one purchase.
type Breakdown struct {
	ICMS   decimal.Decimal `json:"icms"`
	PIS    decimal.Decimal `json:"pis"`
	COFINS decimal.Decimal `json:"cofins"`
}

// Total is ICMS + PIS + COFINS.
func (b Breakdown) Total() decimal.Decimal {
	return b.ICMS.Add(b.PIS).Add(b.COFINS)
}

// Estimate returns the tax breakdown for value shipped from originUF to
// destinationUF. UF codes are compared verbatim: no trimming, no case folding
// and no validation.
func Estimate(value decimal.Decimal, originUF, destinationUF string) Breakdown {
	icmsRate := RateICMSInterstate
	if originUF == destinationUF {
		icmsRate = RateICMSIntrastate
	}
	return Breakdown{
		ICMS:   value.Mul(icmsRate),
		PIS:    value.Mul(RatePIS),
		COFINS: value.Mul(RateCOFINS),
	}
}
