// Package ledger maintains the Baza sheet: one row per observed vehicle
// label, overwritten on every tick with the latest known departure.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bgbus/internal/clock"
	"bgbus/internal/enrich"
	"bgbus/internal/sheets"
)

// Header is the fixed Baza header row. Column order is part of the sheet
// contract; the register parses these columns by position.
var Header = []string{"Vozilo", "Linija", "Polazak", "Smer", "Vreme upisa", "Datum"}

var headerFormat = sheets.CellFormat{
	Background: &sheets.RGB{R: 0.85, G: 0.85, B: 0.85},
	Bold:       true,
	FontSize:   10,
}

// Row is one typed Baza row.
type Row struct {
	Vozilo  string `json:"vozilo"`  // vehicle garage number
	Linija  string `json:"linija"`  // route display name
	Polazak string `json:"polazak"` // departure start time, HH:MM:SS
	Smer    string `json:"smer"`    // direction (terminal stop name)
	Upis    string `json:"timestamp"`
	Datum   string `json:"datum"`
}

// Report summarizes one merge.
type Report struct {
	New     int
	Updated int
}

// Ledger persists vehicle observations into the Baza sheet.
type Ledger struct {
	store  sheets.Store
	logger *slog.Logger
}

// New creates a Ledger over the given sheet store.
func New(store sheets.Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Merge upserts the enriched vehicles into Baza: known labels are
// overwritten in place, new labels appended, and the sheet is left sorted
// by label. Replaying the same set changes only the Vreme upisa column.
func (l *Ledger) Merge(ctx context.Context, vehicles []enrich.Vehicle, now time.Time) (Report, error) {
	var rep Report
	if err := l.ensureHeader(ctx); err != nil {
		return rep, err
	}

	existing, err := l.store.ReadRange(ctx, sheets.SheetBaza, "A2:F")
	if err != nil {
		return rep, fmt.Errorf("read ledger: %w", err)
	}
	rows := make([][]string, len(existing))
	index := make(map[string]int, len(existing))
	for i, r := range existing {
		rows[i] = pad(r, len(Header))
		index[rows[i][0]] = i
	}

	ts := clock.Timestamp(now)
	date := clock.DateOnly(now)
	for _, v := range vehicles {
		row := []string{v.Label, v.DisplayName, v.StartTime, v.DestName, ts, date}
		if i, ok := index[v.Label]; ok {
			rows[i] = row
			rep.Updated++
		} else {
			index[v.Label] = len(rows)
			rows = append(rows, row)
			rep.New++
		}
	}

	for start := 0; start < len(rows); start += sheets.BatchSize {
		end := start + sheets.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		rng := fmt.Sprintf("A%d:F%d", start+2, end+1)
		if err := l.store.WriteRange(ctx, sheets.SheetBaza, rng, rows[start:end]); err != nil {
			return rep, fmt.Errorf("write ledger rows %s: %w", rng, err)
		}
	}

	if len(rows) > 0 {
		if err := l.store.BatchSort(ctx, sheets.SheetBaza, 1, 0, len(Header), 0); err != nil {
			return rep, fmt.Errorf("sort ledger: %w", err)
		}
	}

	l.logger.Info("ledger merged", "new", rep.New, "updated", rep.Updated, "total", len(rows))
	return rep, nil
}

// Rows returns the current Baza contents as typed rows. A sheet that does
// not exist yet reads as empty.
func (l *Ledger) Rows(ctx context.Context) ([]Row, error) {
	raw, err := l.store.ReadRange(ctx, sheets.SheetBaza, "A2:F")
	if errors.Is(err, sheets.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	out := make([]Row, 0, len(raw))
	for _, r := range raw {
		r = pad(r, len(Header))
		if r[0] == "" {
			continue
		}
		out = append(out, Row{
			Vozilo:  r[0],
			Linija:  r[1],
			Polazak: r[2],
			Smer:    r[3],
			Upis:    r[4],
			Datum:   r[5],
		})
	}
	return out, nil
}

// ensureHeader creates Baza when missing and restores the header row if
// it does not match the expected layout.
func (l *Ledger) ensureHeader(ctx context.Context) error {
	props := sheets.Props{Rows: 2000, Cols: len(Header), FrozenHeaderRow: true}
	if err := l.store.EnsureSheet(ctx, sheets.SheetBaza, props); err != nil {
		return fmt.Errorf("ensure ledger sheet: %w", err)
	}
	head, err := l.store.ReadRange(ctx, sheets.SheetBaza, "A1:F1")
	if err != nil {
		return fmt.Errorf("read ledger header: %w", err)
	}
	if len(head) > 0 && equalRow(pad(head[0], len(Header)), Header) {
		return nil
	}
	if err := l.store.WriteRange(ctx, sheets.SheetBaza, "A1:F1", [][]string{Header}); err != nil {
		return fmt.Errorf("%w: restore ledger header: %v", sheets.ErrSchemaMismatch, err)
	}
	reqs := []sheets.FormatRequest{{
		StartRow: 0, EndRow: 1,
		StartCol: 0, EndCol: len(Header),
		Format: headerFormat,
	}}
	if err := l.store.BatchFormat(ctx, sheets.SheetBaza, reqs); err != nil {
		l.logger.Warn("ledger header format failed", "error", err)
	}
	return nil
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
