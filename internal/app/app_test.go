package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/config"
	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/distance"
	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
)

func offlineConfig() config.Config {
	return config.Config{
		RedisAddr:         "127.0.0.1:1",
		DestinationUF:     "RS",
		FreightMode:       freight.ModeSimulated,
		HTTPTimeout:       time.Second,
		DefaultQuoteValue: decimal.NewFromInt(50000),
		LocalSearchCity:   "Porto Alegre",
	}
}

func TestOpenCache_Unavailable(t *testing.T) {
	assert.Nil(t, OpenCache(context.Background(), offlineConfig(), zap.NewNop()))
}

func TestNew_OfflineEstimator(t *testing.T) {
	s := New(offlineConfig(), nil, nil)
	defer s.Close()

	res := s.Estimator.Estimate(context.Background(), "São Paulo, SP", "Rio de Janeiro, RJ")
	assert.Equal(t, distance.SourceTable, res.Source)

	out, err := s.Calculator.Rank(context.Background(), []comparison.Quote{
		{Name: "A", OriginUF: "SP", Value: decimal.NewFromInt(50000)},
		{Name: "B", OriginUF: "RS", Value: decimal.NewFromInt(50000)},
	}, "RS")
	require.NoError(t, err)
	assert.Equal(t, "B", out.Best().Quote.Name)
	assert.NotNil(t, s.Finder)
	assert.NotNil(t, s.Invoices)
}
