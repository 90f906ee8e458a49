package tick

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bgbus/internal/clock"
	"bgbus/internal/feed"
	"bgbus/internal/ledger"
	"bgbus/internal/metrics"
	"bgbus/internal/refdata"
	"bgbus/internal/register"
	"bgbus/internal/sheets"
)

const feedBody = `{
  "header": {"gtfsRealtimeVersion": "2.0"},
  "entity": [
    {
      "id": "tu-1",
      "tripUpdate": {
        "trip": {"routeId": "00031"},
        "vehicle": {"id": "v1"},
        "stopTimeUpdate": [{"stopId": "20123"}, {"stopId": "21005"}]
      }
    },
    {
      "id": "veh-1",
      "vehicle": {
        "trip": {"routeId": "00031", "startTime": "10:00:00"},
        "vehicle": {"id": "v1", "label": "P70618"},
        "position": {"latitude": 44.81, "longitude": 20.46}
      }
    }
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRefStore(t *testing.T) *refdata.Store {
	t.Helper()
	dir := t.TempDir()
	stops := filepath.Join(dir, "stops.json")
	if err := os.WriteFile(stops, []byte(`{"1005": {"name": "Ikea", "coords": [44.78, 20.44]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	routes := filepath.Join(dir, "routes.json")
	if err := os.WriteFile(routes, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return refdata.Load(stops, routes, nil, testLogger())
}

type harness struct {
	runner *Runner
	store  *sheets.Memory
	clk    *clock.MockClock
}

func newHarness(t *testing.T, feedURL string, now time.Time) *harness {
	t.Helper()
	log := testLogger()
	store := sheets.NewMemory()
	clk := clock.NewMockClock(now)
	led := ledger.New(store, log)
	reg := register.New(store, led, log)
	rot := register.NewRotator(store, log)
	fc := feed.NewClient(feedURL, log)
	return &harness{
		runner: NewRunner(fc, testRefStore(t), led, reg, rot, clk, metrics.New(), log),
		store:  store,
		clk:    clk,
	}
}

func localTime(t *testing.T, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 12, day, hour, min, 0, 0, clock.Belgrade())
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunFreshDay(t *testing.T) {
	srv := feedServer(t)
	h := newHarness(t, srv.URL, localTime(t, 8, 10, 5))

	rep, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.NewVehicles != 1 || rep.UpdatedVehicles != 0 || rep.TotalProcessed != 1 {
		t.Errorf("vehicle counts = %+v", rep)
	}
	if rep.NewDepartures != 1 || rep.UpdatedDepartures != 0 {
		t.Errorf("departure counts = %+v", rep)
	}
	if rep.RotationPerformed || rep.FeedFailure {
		t.Errorf("unexpected flags in %+v", rep)
	}

	line := rep.Line()
	want := "SUCCESS - Updated at " + rep.Timestamp + " | Vehicles: 1 | New: 1 | Updated: 0"
	if line != want {
		t.Errorf("monitor line = %q, want %q", line, want)
	}

	rows, err := h.store.ReadRange(context.Background(), sheets.SheetBaza, "A2:F")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][0] != "P70618" || rows[0][1] != "31" || rows[0][3] != "Ikea" {
		t.Errorf("ledger rows = %v", rows)
	}
	polasci, err := h.store.ReadRange(context.Background(), sheets.SheetPolasci, "A:J")
	if err != nil {
		t.Fatal(err)
	}
	if len(polasci) == 0 || polasci[0][0] != "Linija 31" {
		t.Errorf("register rows = %v", polasci)
	}
}

func TestRunReobservationIsIdempotent(t *testing.T) {
	srv := feedServer(t)
	h := newHarness(t, srv.URL, localTime(t, 8, 10, 5))
	ctx := context.Background()

	if _, err := h.runner.Run(ctx); err != nil {
		t.Fatal(err)
	}
	before, err := h.store.ReadRange(ctx, sheets.SheetBaza, "A2:F")
	if err != nil {
		t.Fatal(err)
	}

	h.clk.Advance(time.Hour)
	rep, err := h.runner.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.NewVehicles != 0 || rep.UpdatedVehicles != 1 {
		t.Errorf("vehicle counts = %+v, want only updates", rep)
	}
	if rep.NewDepartures != 0 || rep.UpdatedDepartures != 1 {
		t.Errorf("departure counts = %+v, want only updates", rep)
	}

	after, err := h.store.ReadRange(ctx, sheets.SheetBaza, "A2:F")
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("ledger grew from %d to %d rows", len(before), len(after))
	}
	if after[0][4] <= before[0][4] {
		t.Errorf("observation timestamp did not advance: %q -> %q", before[0][4], after[0][4])
	}
}

func TestRunRotatesInWindow(t *testing.T) {
	srv := feedServer(t)
	h := newHarness(t, srv.URL, localTime(t, 8, 10, 5))
	ctx := context.Background()
	if _, err := h.runner.Run(ctx); err != nil {
		t.Fatal(err)
	}

	h.clk.Set(localTime(t, 9, 1, 5))
	rep, err := h.runner.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.RotationPerformed {
		t.Fatal("expected rotation at 01:05")
	}
	if !strings.Contains(rep.Line(), "RESET EXECUTED") {
		t.Errorf("monitor line = %q, want rotation marker", rep.Line())
	}

	juce, err := h.store.ReadRange(ctx, sheets.SheetJuce, "A:J")
	if err != nil {
		t.Fatal(err)
	}
	if len(juce) == 0 || juce[0][0] != "Linija 31" {
		t.Errorf("archive rows = %v", juce)
	}
}

func TestRunFeedOutageWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	h := newHarness(t, srv.URL, localTime(t, 8, 10, 5))

	rep, err := h.runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected error on feed outage")
	}
	if !errors.Is(err, feed.ErrUnavailable) {
		t.Errorf("error = %v, want feed.ErrUnavailable", err)
	}
	if !rep.FeedFailure {
		t.Errorf("report = %+v, want FeedFailure", rep)
	}
	line := ErrorLine(rep.Timestamp, err)
	if !strings.HasPrefix(line, "ERROR - Failed at ") {
		t.Errorf("monitor line = %q", line)
	}

	if _, err := h.store.ReadRange(context.Background(), sheets.SheetBaza, "A2:F"); !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("ledger sheet exists after failed tick (err=%v)", err)
	}
}

func TestRunRejectsOverlap(t *testing.T) {
	srv := feedServer(t)
	h := newHarness(t, srv.URL, localTime(t, 8, 10, 5))

	h.runner.mu.Lock()
	defer h.runner.mu.Unlock()
	_, err := h.runner.Run(context.Background())
	if !errors.Is(err, ErrBusy) {
		t.Errorf("error = %v, want ErrBusy", err)
	}
}
