// Package server wires the HTTP routes and middleware around the handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bgbus/internal/config"
	"bgbus/internal/handler"
	"bgbus/internal/metrics"
)

// Server is the HTTP server for the aggregation core.
type Server struct {
	srv    *http.Server
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Server with all routes registered.
func New(cfg *config.Config, h *handler.Handler, met *metrics.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Monitor-facing tick trigger
	mux.HandleFunc("GET /hourly-check", h.HourlyCheck)

	// Map UI
	mux.HandleFunc("GET /vehicles", h.Vehicles)
	mux.HandleFunc("GET /api/shapes", h.Shapes)
	mux.HandleFunc("GET /api/config", h.Config)

	// Sheet views
	mux.HandleFunc("GET /update-departures-sheet", h.Departures)
	mux.HandleFunc("POST /update-departures-sheet", h.MergeDepartures)
	mux.HandleFunc("GET /get-sheet-data", h.GetSheetData)

	// Aliases kept for clients already on the /api prefix.
	mux.HandleFunc("GET /api/vehicles", h.Vehicles)
	mux.HandleFunc("GET /api/update-departures-sheet", h.Departures)
	mux.HandleFunc("POST /api/update-departures-sheet", h.MergeDepartures)
	mux.HandleFunc("GET /api/get-sheet-data", h.GetSheetData)

	// Operational
	mux.Handle("GET /metrics", met.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           withMiddleware(mux, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server starting", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
