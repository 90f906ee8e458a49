package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"bgbus/internal/clock"
	"bgbus/internal/config"
	"bgbus/internal/feed"
	"bgbus/internal/handler"
	"bgbus/internal/ledger"
	"bgbus/internal/metrics"
	"bgbus/internal/refdata"
	"bgbus/internal/register"
	"bgbus/internal/sheets"
	"bgbus/internal/tick"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Port: 0, Timezone: "Europe/Belgrade"}
	store := sheets.NewMemory()
	ref := refdata.Load("missing.json", "missing.json", nil, logger)
	fc := feed.NewClient("http://127.0.0.1:0/feed", logger)
	led := ledger.New(store, logger)
	reg := register.New(store, led, logger)
	rot := register.NewRotator(store, logger)
	met := metrics.New()
	clk := clock.RealClock{}
	runner := tick.NewRunner(fc, ref, led, reg, rot, clk, met, logger)
	h := handler.New(cfg, fc, ref, led, reg, runner, clk, logger)
	return New(cfg, h, met, logger)
}

func TestRoutesRegistered(t *testing.T) {
	s := testServer(t)

	// Documented inbound paths plus the /api aliases all resolve; only
	// read paths that need no upstream are asserted for success.
	tests := []struct {
		method, path string
		wantStatus   int
	}{
		{"GET", "/update-departures-sheet", http.StatusOK},
		{"GET", "/get-sheet-data", http.StatusOK},
		{"GET", "/api/update-departures-sheet", http.StatusOK},
		{"GET", "/api/get-sheet-data", http.StatusOK},
		{"GET", "/api/config", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
		}
	}

	// Paths that reach out to the upstream feed must at least be routed.
	for _, path := range []string{"/vehicles", "/api/vehicles"} {
		rec := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code == http.StatusNotFound {
			t.Errorf("GET %s not routed", path)
		}
	}
}
