// Package distance estimates the road distance between two location labels.
//
// Three tiers are tried in a fixed order:
//
//  1. routing: geocode both labels and ask a routing API for the driving distance
//  2. table: haversine over the static coordinate table (exact labels only)
//  3. region-flat: 200 km when both labels share the trailing UF, 800 km otherwise
//
// A failing tier is logged and the next one runs. Estimate never returns an
// error; Result.Known is false only when the context ends before any tier
// produced a value.
package distance

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/pkg/fallback"
	"github.com/lucasfdcampos/find-suppliers/pkg/geo"
)

// Source identifies the tier that produced a distance.
type Source string

const (
	SourceRouting    Source = "routing"
	SourceTable      Source = "haversine"
	SourceRegionFlat Source = "region-flat"
	SourceUnknown    Source = "unknown"
)

const (
	SameStateKm      = 200.0
	DifferentStateKm = 800.0
)

var (
	errRoutingDisabled = errors.New("routing desativado")
	errNotInTable      = errors.New("local fora da tabela de coordenadas")
)

// Result is one distance estimate.
type Result struct {
	Km     float64 `json:"km"`
	Source Source  `json:"source"`
	Known  bool    `json:"known"`
}

// Estimator runs the tiered distance estimate. The zero value is not usable;
// build one with NewEstimator.
type Estimator struct {
	geocoder Geocoder
	router   Router
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithRouting enables the routing tier. Both arguments must be non-nil.
func WithRouting(g Geocoder, r Router) Option {
	return func(e *Estimator) {
		e.geocoder = g
		e.router = r
	}
}

// WithTimeout bounds the routing tier (both geocodes plus the route call).
func WithTimeout(d time.Duration) Option {
	return func(e *Estimator) { e.timeout = d }
}

// WithLogger sets the logger used for degraded tiers.
func WithLogger(l *zap.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEstimator builds an Estimator. Without WithRouting only the table and
// region-flat tiers run.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{timeout: 10 * time.Second, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns the distance in km between origin and destination.
func (e *Estimator) Estimate(ctx context.Context, origin, destination string) Result {
	out := fallback.First(ctx, 0,
		fallback.New(string(SourceRouting), func(ctx context.Context) (float64, error) {
			return e.routing(ctx, origin, destination)
		}),
		fallback.New(string(SourceTable), func(context.Context) (float64, error) {
			return tableDistance(origin, destination)
		}),
		fallback.New(string(SourceRegionFlat), func(context.Context) (float64, error) {
			return flatDistance(origin, destination), nil
		}),
	)

	for _, a := range out.Failures() {
		if errors.Is(a.Err, errRoutingDisabled) {
			continue
		}
		e.logger.Warn("distance tier failed",
			zap.String("tier", a.Name),
			zap.String("origin", origin),
			zap.String("destination", destination),
			zap.Error(a.Err),
		)
	}

	if !out.OK() {
		return Result{Source: SourceUnknown}
	}
	return Result{Km: out.Value, Source: Source(out.Source), Known: true}
}

func (e *Estimator) routing(ctx context.Context, origin, destination string) (float64, error) {
	if e.geocoder == nil || e.router == nil {
		return 0, errRoutingDisabled
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	from, err := e.geocoder.Geocode(ctx, origin)
	if err != nil {
		return 0, err
	}
	to, err := e.geocoder.Geocode(ctx, destination)
	if err != nil {
		return 0, err
	}

	meters, err := e.router.Route(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if meters < 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return 0, errors.New("distância inválida na resposta de rota")
	}
	return math.Round(meters/1000*100) / 100, nil
}

func tableDistance(origin, destination string) (float64, error) {
	a, ok := geo.Coordinates(origin)
	if !ok {
		return 0, errNotInTable
	}
	b, ok := geo.Coordinates(destination)
	if !ok {
		return 0, errNotInTable
	}
	return geo.Haversine(a, b), nil
}

func flatDistance(origin, destination string) float64 {
	if geo.StateCode(origin) == geo.StateCode(destination) {
		return SameStateKm
	}
	return DifferentStateKm
}
