// Package api exposes the supplier search and landed-cost comparison over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server wraps the HTTP server.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer wires routes and returns a ready-to-start Server.
func NewServer(addr string, h *Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(h, logger),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute, // searches can be slow
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the chi router with request-id, recovery and access log.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/suppliers/search", h.SearchSuppliers)
		r.Post("/comparisons", h.Compare)
		r.Post("/acquisitions", h.Acquisition)
		r.Get("/companies/{cnpj}", h.Company)
		r.Get("/distance", h.Distance)
	})
	return r
}

// Start begins listening and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("supplier-api listening", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// requestLogger logs each request with method, route, status and latency.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", rw.status),
				zap.Duration("latency", time.Since(start)),
			}
			switch {
			case rw.status >= http.StatusInternalServerError:
				logger.Error("request completed", fields...)
			case rw.status >= http.StatusBadRequest:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
