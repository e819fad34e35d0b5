// Package app wires the configured collaborators shared by the CLI and the
// API server.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/cache"
	"github.com/lucasfdcampos/find-suppliers/internal/config"
	"github.com/lucasfdcampos/find-suppliers/pkg/cnpj"
	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/distance"
	"github.com/lucasfdcampos/find-suppliers/pkg/invoice"
	"github.com/lucasfdcampos/find-suppliers/pkg/suppliers"
)

const cachePingTimeout = 5 * time.Second

// Services are the ready-to-use collaborators.
type Services struct {
	Cache      *cache.Client // nil when Redis is unavailable
	Estimator  *distance.Estimator
	Registry   *cnpj.Registry
	Finder     *suppliers.Finder
	Invoices   *invoice.Client
	Calculator *comparison.Calculator
}

// OpenCache connects to Redis and returns nil when it does not answer.
func OpenCache(ctx context.Context, cfg config.Config, logger *zap.Logger) *cache.Client {
	rc := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	ctx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("Redis not available, lookups will not be cached", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rc.Close()
		return nil
	}
	logger.Info("Redis connected", zap.String("addr", cfg.RedisAddr))
	return rc
}

// New builds every collaborator from cfg. rc may be nil.
func New(cfg config.Config, rc *cache.Client, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	var lc interface {
		distance.Cache
		cnpj.Cache
	}
	if rc != nil {
		lc = rc
	}

	opts := []distance.Option{
		distance.WithTimeout(cfg.HTTPTimeout),
		distance.WithLogger(logger.Named("distance")),
	}
	if cfg.RoutingEnabled() {
		geocoders := []distance.Geocoder{distance.NewORSGeocoder(cfg.ORSAPIKey, cfg.HTTPTimeout)}
		if cfg.GeoapifyAPIKey != "" {
			geocoders = append(geocoders, distance.NewGeoapifyGeocoder(cfg.GeoapifyAPIKey, cfg.HTTPTimeout))
		}
		if cfg.TomTomAPIKey != "" {
			geocoders = append(geocoders, distance.NewTomTomGeocoder(cfg.TomTomAPIKey, cfg.HTTPTimeout))
		}
		geocoders = append(geocoders, distance.NewNominatimGeocoder(cfg.HTTPTimeout))
		chain := distance.NewGeocoderChain(logger.Named("geocode"), lc, geocoders...)
		opts = append(opts, distance.WithRouting(chain, distance.NewORSRouter(cfg.ORSAPIKey, cfg.HTTPTimeout)))
	}
	est := distance.NewEstimator(opts...)

	registry := cnpj.NewRegistry(logger.Named("registry"), lc)
	finder := suppliers.NewFinder(logger.Named("search"), cfg.LocalSearchCity,
		cnpj.NewSiteExtractor(cfg.HTTPTimeout), registry,
		suppliers.NewSerpAPISearcher(cfg.SerpAPIKey, cfg.HTTPTimeout),
		suppliers.NewDuckDuckGoSearcher(cfg.HTTPTimeout),
	)

	return &Services{
		Cache:      rc,
		Estimator:  est,
		Registry:   registry,
		Finder:     finder,
		Invoices:   invoice.NewClient(cfg.NFeIOAPIKey, cfg.NFeIOCompanyID, logger.Named("invoice")),
		Calculator: comparison.NewCalculator(est, cfg.FreightMode, logger.Named("comparison")),
	}
}

// Close releases the cache connection.
func (s *Services) Close() error {
	return s.Cache.Close()
}
