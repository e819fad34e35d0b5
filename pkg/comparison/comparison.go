// Package comparison computes the landed cost of supplier quotes (product
// value, estimated taxes and freight) and ranks them.
package comparison

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/pkg/distance"
	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
	"github.com/lucasfdcampos/find-suppliers/pkg/invoice"
	"github.com/lucasfdcampos/find-suppliers/pkg/tax"
)

const (
	MinQuotes = 2
	MaxQuotes = 5
)

var (
	ErrTooFewQuotes       = errors.New("comparison: selecione pelo menos 2 fornecedores")
	ErrTooManyQuotes      = errors.New("comparison: no máximo 5 fornecedores por comparação")
	ErrMissingDestination = errors.New("comparison: UF de destino não informada")
)

// Quote is one supplier offer selected for comparison.
type Quote struct {
	Name     string          `json:"name"`
	OriginUF string          `json:"origin_uf"`
	Value    decimal.Decimal `json:"value"`

	// Reputation is carried through to the report; it does not affect cost.
	Reputation int `json:"reputation,omitempty"`
}

// Breakdown is the landed cost of one quote.
type Breakdown struct {
	ProductValue      decimal.Decimal `json:"product_value"`
	ICMS              decimal.Decimal `json:"icms"`
	PIS               decimal.Decimal `json:"pis"`
	COFINS            decimal.Decimal `json:"cofins"`
	TaxTotal          decimal.Decimal `json:"tax_total"`
	DistanceKm        float64         `json:"distance_km"`
	DistanceSource    distance.Source `json:"distance_source"`
	RatePerKm         decimal.Decimal `json:"rate_per_km"`
	FreightTotal      decimal.Decimal `json:"freight_total"`
	FreightCalculated bool            `json:"freight_calculated"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

// Entry pairs a quote with its breakdown.
type Entry struct {
	Quote     Quote     `json:"quote"`
	Breakdown Breakdown `json:"breakdown"`
}

// Group is the average total cost of the quotes sharing an origin UF.
type Group struct {
	OriginUF     string          `json:"origin_uf"`
	Count        int             `json:"count"`
	AverageTotal decimal.Decimal `json:"average_total"`
}

// Result is one ranking run.
type Result struct {
	ID            string       `json:"id"`
	DestinationUF string       `json:"destination_uf"`
	Mode          freight.Mode `json:"mode"`
	CreatedAt     time.Time    `json:"created_at"`
	Entries       []Entry      `json:"entries"` // ascending by total cost
	Groups        []Group      `json:"groups"`  // first-seen origin order
}

// Best returns the cheapest entry. Rank never returns an empty Result.
func (r *Result) Best() Entry {
	return r.Entries[0]
}

// Total is the landed cost: value + icms + pis + cofins + freight.
func Total(value, icms, pis, cofins, freightTotal decimal.Decimal) decimal.Decimal {
	return value.Add(icms).Add(pis).Add(cofins).Add(freightTotal)
}

// DistanceEstimator is satisfied by *distance.Estimator.
type DistanceEstimator interface {
	Estimate(ctx context.Context, origin, destination string) distance.Result
}

// Calculator combines tax, distance and freight estimates.
type Calculator struct {
	distance DistanceEstimator
	mode     freight.Mode
	logger   *zap.Logger
	now      func() time.Time
}

func NewCalculator(est DistanceEstimator, mode freight.Mode, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = freight.ModeSimulated
	}
	return &Calculator{distance: est, mode: mode, logger: logger, now: time.Now}
}

// WithMode returns a copy of c using mode.
func (c *Calculator) WithMode(mode freight.Mode) *Calculator {
	cp := *c
	if mode != "" {
		cp.mode = mode
	}
	return &cp
}

// Mode reports the freight mode in use.
func (c *Calculator) Mode() freight.Mode { return c.mode }

// Breakdown runs tax, distance, freight and total for a single quote, in
// that order. An unknown distance yields a zero, not-calculated freight.
func (c *Calculator) Breakdown(ctx context.Context, q Quote, destinationUF string) Breakdown {
	taxes := tax.Estimate(q.Value, q.OriginUF, destinationUF)

	dist := c.distance.Estimate(ctx, q.OriginUF, destinationUF)
	km := dist.Km
	if !dist.Known {
		km = 0
	}
	fr := freight.Cost(km, c.mode, q.OriginUF, destinationUF)
	if !fr.Calculated {
		c.logger.Warn("freight not calculated",
			zap.String("supplier", q.Name),
			zap.String("origin", q.OriginUF),
			zap.String("destination", destinationUF),
		)
	}

	return Breakdown{
		ProductValue:      q.Value,
		ICMS:              taxes.ICMS,
		PIS:               taxes.PIS,
		COFINS:            taxes.COFINS,
		TaxTotal:          taxes.Total(),
		DistanceKm:        fr.DistanceKm,
		DistanceSource:    dist.Source,
		RatePerKm:         fr.RatePerKm,
		FreightTotal:      fr.Amount,
		FreightCalculated: fr.Calculated,
		TotalCost:         Total(q.Value, taxes.ICMS, taxes.PIS, taxes.COFINS, fr.Amount),
	}
}

// Rank computes every quote and sorts ascending by total cost. Ties keep
// input order.
func (c *Calculator) Rank(ctx context.Context, quotes []Quote, destinationUF string) (*Result, error) {
	switch {
	case len(quotes) < MinQuotes:
		return nil, ErrTooFewQuotes
	case len(quotes) > MaxQuotes:
		return nil, ErrTooManyQuotes
	case strings.TrimSpace(destinationUF) == "":
		return nil, ErrMissingDestination
	}

	entries := make([]Entry, 0, len(quotes))
	for _, q := range quotes {
		entries = append(entries, Entry{Quote: q, Breakdown: c.Breakdown(ctx, q, destinationUF)})
	}

	groups := groupByOrigin(entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Breakdown.TotalCost.LessThan(entries[j].Breakdown.TotalCost)
	})

	return &Result{
		ID:            uuid.NewString(),
		DestinationUF: destinationUF,
		Mode:          c.mode,
		CreatedAt:     c.now(),
		Entries:       entries,
		Groups:        groups,
	}, nil
}

// Acquisition computes the landed cost of a single invoice, using its total
// as the product value.
func (c *Calculator) Acquisition(ctx context.Context, inv invoice.Invoice, originUF, destinationUF string) (Entry, error) {
	if strings.TrimSpace(destinationUF) == "" {
		return Entry{}, ErrMissingDestination
	}
	q := Quote{Name: inv.IssuerName, OriginUF: originUF, Value: inv.Total}
	return Entry{Quote: q, Breakdown: c.Breakdown(ctx, q, destinationUF)}, nil
}

func groupByOrigin(entries []Entry) []Group {
	var groups []Group
	sums := make(map[string]decimal.Decimal)
	index := make(map[string]int)

	for _, e := range entries {
		uf := e.Quote.OriginUF
		i, ok := index[uf]
		if !ok {
			i = len(groups)
			index[uf] = i
			groups = append(groups, Group{OriginUF: uf})
		}
		groups[i].Count++
		sums[uf] = sums[uf].Add(e.Breakdown.TotalCost)
	}

	for i := range groups {
		g := &groups[i]
		g.AverageTotal = sums[g.OriginUF].Div(decimal.NewFromInt(int64(g.Count)))
	}
	return groups
}
