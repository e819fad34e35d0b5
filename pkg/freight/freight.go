// Package freight prices road transport for a supplier quote.
//
// Two modes exist: simulated uses one flat rate per km, real averages the
// per-km rates of the origin and destination macro-regions.
package freight

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lucasfdcampos/find-suppliers/pkg/geo"
)

// Mode selects how the per-km rate is derived.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeReal      Mode = "real"
)

// SimulatedRatePerKm is the flat rate used in simulated mode.
var SimulatedRatePerKm = decimal.RequireFromString("0.8")

// ParseMode accepts "simulated"/"simulado" and "real" in any case. An empty
// string means ModeSimulated.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simulated", "simulado":
		return ModeSimulated, nil
	case "real":
		return ModeReal, nil
	default:
		return "", fmt.Errorf("freight: modo desconhecido %q", s)
	}
}

// Quote is the freight price for one shipment.
type Quote struct {
	DistanceKm float64         `json:"distance_km"`
	RatePerKm  decimal.Decimal `json:"rate_per_km"`
	Amount     decimal.Decimal `json:"amount"`
	// Calculated is false when the distance was unknown or zero. Amount is
	// then zero and must be shown as "not calculated", not as R$ 0,00.
	Calculated bool `json:"calculated"`
}

// RatePerKm returns the per-km rate for mode. In real mode it is the mean of
// the origin and destination region rates; unmapped UFs count as Sudeste.
func RatePerKm(mode Mode, originUF, destinationUF string) decimal.Decimal {
	if mode != ModeReal {
		return SimulatedRatePerKm
	}
	o := geo.RegionRate(geo.RegionOf(originUF))
	d := geo.RegionRate(geo.RegionOf(destinationUF))
	return o.Add(d).Div(decimal.NewFromInt(2))
}

// Cost prices distanceKm at the mode rate. A non-positive or non-finite
// distance is treated as unknown.
func Cost(distanceKm float64, mode Mode, originUF, destinationUF string) Quote {
	rate := RatePerKm(mode, originUF, destinationUF)
	if distanceKm <= 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return Quote{RatePerKm: rate, Amount: decimal.Zero}
	}
	return Quote{
		DistanceKm: distanceKm,
		RatePerKm:  rate,
		Amount:     decimal.NewFromFloat(distanceKm).Mul(rate),
		Calculated: true,
	}
}
