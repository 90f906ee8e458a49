package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bgbus/internal/clock"
	"bgbus/internal/config"
	"bgbus/internal/feed"
	"bgbus/internal/handler"
	"bgbus/internal/ledger"
	"bgbus/internal/metrics"
	"bgbus/internal/refdata"
	"bgbus/internal/register"
	"bgbus/internal/server"
	"bgbus/internal/sheets"
	"bgbus/internal/tick"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Local development keeps credentials in a .env file; absence is fine.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	cfg := config.Load()

	// CLI flags
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.FeedURL, "feed-url", cfg.FeedURL, "Upstream realtime feed URL")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ref := refdata.Load(cfg.StopsPath, cfg.RouteNamesPath, cfg.ShapesPaths, logger)

	var store sheets.Store
	if cfg.HasSheetsCredentials() {
		g, err := sheets.NewGoogle(ctx, cfg.SheetsClientEmail, cfg.SheetsPrivateKey, cfg.SpreadsheetID, logger)
		if err != nil {
			logger.Error("failed to create sheets client", "error", err)
			os.Exit(1)
		}
		store = g
	} else {
		logger.Warn("no Google Sheets credentials configured — using in-memory store, data will not survive restarts")
		store = sheets.NewMemory()
	}

	clk := clock.RealClock{}
	met := metrics.New()
	fc := feed.NewClient(cfg.FeedURL, logger)
	led := ledger.New(store, logger)
	reg := register.New(store, led, logger)
	rot := register.NewRotator(store, logger)
	runner := tick.NewRunner(fc, ref, led, reg, rot, clk, met, logger)

	h := handler.New(cfg, fc, ref, led, reg, runner, clk, logger)
	srv := server.New(cfg, h, met, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		cancel()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
