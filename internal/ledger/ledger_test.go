package ledger

import (
	"context"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"bgbus/internal/clock"
	"bgbus/internal/enrich"
	"bgbus/internal/sheets"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func localTime(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 12, 8, hour, min, 0, 0, clock.Belgrade())
}

func TestMergeFreshSheet(t *testing.T) {
	ctx := context.Background()
	store := sheets.NewMemory()
	led := New(store, testLogger())
	now := localTime(t, 10, 5)

	rep, err := led.Merge(ctx, []enrich.Vehicle{
		{Label: "P70618", DisplayName: "31", StartTime: "10:00:00", DestName: "Ikea"},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if rep.New != 1 || rep.Updated != 0 {
		t.Errorf("report = %+v, want New=1 Updated=0", rep)
	}

	head, err := store.ReadRange(ctx, sheets.SheetBaza, "A1:F1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(head[0], Header) {
		t.Errorf("header = %v, want %v", head[0], Header)
	}
	rows, err := led.Rows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Row{{
		Vozilo: "P70618", Linija: "31", Polazak: "10:00:00", Smer: "Ikea",
		Upis: clock.Timestamp(now), Datum: clock.DateOnly(now),
	}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestMergeUpsertsByLabel(t *testing.T) {
	ctx := context.Background()
	store := sheets.NewMemory()
	led := New(store, testLogger())

	first := localTime(t, 10, 5)
	if _, err := led.Merge(ctx, []enrich.Vehicle{
		{Label: "P70618", DisplayName: "31", StartTime: "10:00:00", DestName: "Ikea"},
		{Label: "2001", DisplayName: "2L", StartTime: "09:45:00", DestName: "Pristanište"},
	}, first); err != nil {
		t.Fatal(err)
	}

	second := first.Add(time.Hour)
	rep, err := led.Merge(ctx, []enrich.Vehicle{
		{Label: "P70618", DisplayName: "31", StartTime: "11:00:00", DestName: "Ikea"},
	}, second)
	if err != nil {
		t.Fatal(err)
	}
	if rep.New != 0 || rep.Updated != 1 {
		t.Errorf("report = %+v, want New=0 Updated=1", rep)
	}

	rows, err := led.Rows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (one per label)", len(rows))
	}
	byLabel := make(map[string]Row)
	for _, r := range rows {
		if _, dup := byLabel[r.Vozilo]; dup {
			t.Fatalf("duplicate label %q", r.Vozilo)
		}
		byLabel[r.Vozilo] = r
	}
	got := byLabel["P70618"]
	if got.Polazak != "11:00:00" || got.Upis != clock.Timestamp(second) {
		t.Errorf("updated row = %+v", got)
	}
}

func TestMergeSortsByLabel(t *testing.T) {
	ctx := context.Background()
	store := sheets.NewMemory()
	led := New(store, testLogger())

	if _, err := led.Merge(ctx, []enrich.Vehicle{
		{Label: "P93001", DisplayName: "26"},
		{Label: "P80012", DisplayName: "89"},
		{Label: "2040", DisplayName: "2L"},
	}, localTime(t, 10, 5)); err != nil {
		t.Fatal(err)
	}

	rows, err := led.Rows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Vozilo
	}
	want := []string{"2040", "P80012", "P93001"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestMergeRestoresHeader(t *testing.T) {
	ctx := context.Background()
	store := sheets.NewMemory()
	if err := store.EnsureSheet(ctx, sheets.SheetBaza, sheets.Props{}); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteRange(ctx, sheets.SheetBaza, "A1:F1", [][]string{{"garbage"}}); err != nil {
		t.Fatal(err)
	}

	led := New(store, testLogger())
	if _, err := led.Merge(ctx, nil, localTime(t, 10, 5)); err != nil {
		t.Fatal(err)
	}
	head, err := store.ReadRange(ctx, sheets.SheetBaza, "A1:F1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(head[0], Header) {
		t.Errorf("header = %v, want %v", head[0], Header)
	}
}
