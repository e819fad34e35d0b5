package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/api"
	"github.com/lucasfdcampos/find-suppliers/internal/app"
	"github.com/lucasfdcampos/find-suppliers/internal/config"
	"github.com/lucasfdcampos/find-suppliers/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.MustNew(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"})
	defer func() { _ = logger.Sync() }()

	// ─── Redis ────────────────────────────────────────────────────────────────
	rc := app.OpenCache(context.Background(), cfg, logger)
	services := app.New(cfg, rc, logger)
	defer services.Close()

	if !cfg.RoutingEnabled() {
		logger.Warn("ORS_API_KEY not set, distances use the coordinate table and region estimates")
	}

	// ─── HTTP server ──────────────────────────────────────────────────────────
	handler := api.NewHandler(api.Deps{
		Finder:        services.Finder,
		Registry:      services.Registry,
		Invoices:      services.Invoices,
		Distance:      services.Estimator,
		Mode:          cfg.FreightMode,
		DestinationUF: cfg.DestinationUF,
		Logger:        logger.Named("api"),
	})
	srv := api.NewServer(cfg.Addr, handler, logger.Named("http"))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("bye")
}
