package register

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bgbus/internal/clock"
	"bgbus/internal/ledger"
	"bgbus/internal/sheets"
)

var (
	routeFormat = sheets.CellFormat{
		Background: &sheets.RGB{R: 0.1, G: 0.2, B: 0.45},
		Foreground: &sheets.RGB{R: 1, G: 1, B: 1},
		Bold:       true,
		FontSize:   14,
	}
	directionFormat = sheets.CellFormat{
		Background: &sheets.RGB{R: 0.75, G: 0.85, B: 0.95},
		Bold:       true,
		FontSize:   12,
	}
	columnFormat = sheets.CellFormat{
		Background: &sheets.RGB{R: 0.9, G: 0.9, B: 0.9},
		Bold:       true,
		FontSize:   10,
	}
)

// Report summarizes one register merge.
type Report struct {
	New     int
	Updated int
}

// Register persists the departure structure into Polasci. Its source of
// truth is the vehicle ledger, never the live snapshot, so the ledger
// merge must complete first within a tick.
type Register struct {
	store  sheets.Store
	led    *ledger.Ledger
	logger *slog.Logger
}

// New creates a Register reading from led and writing through store.
func New(store sheets.Store, led *ledger.Ledger, logger *slog.Logger) *Register {
	return &Register{store: store, led: led, logger: logger}
}

// Merge reconciles today's qualifying ledger rows with the existing
// register and regenerates Polasci in canonical layout order.
func (g *Register) Merge(ctx context.Context, now time.Time) (Report, error) {
	var rep Report
	if err := g.store.EnsureSheet(ctx, sheets.SheetPolasci, sheets.Props{Rows: 2000, Cols: 10}); err != nil {
		return rep, fmt.Errorf("ensure register sheet: %w", err)
	}

	ledRows, err := g.led.Rows(ctx)
	if err != nil {
		return rep, err
	}
	qualifying := dedupe(qualify(ledRows, now))

	raw, err := g.store.ReadRange(ctx, sheets.SheetPolasci, "A:J")
	if err != nil {
		return rep, fmt.Errorf("read register: %w", err)
	}

	existing := make(map[Key]Entry)
	for _, r := range Parse(raw) {
		for _, d := range r.Directions {
			for _, e := range d.Entries {
				existing[Key{r.Name, d.Name, e.StartTime, e.Vehicle}] = e
			}
		}
	}

	ts := clock.Timestamp(now)
	for _, row := range qualifying {
		key := Key{row.Linija, row.Smer, row.Polazak, row.Vozilo}
		e, ok := existing[key]
		if !ok {
			e = Entry{StartTime: key.StartTime, Vehicle: key.Vehicle}
			rep.New++
		} else {
			rep.Updated++
		}
		e.LastSeen = ts
		existing[key] = e
	}

	routes := rebuild(existing)
	sortRoutes(routes)
	if err := g.regenerate(ctx, routes); err != nil {
		return rep, err
	}
	g.logger.Info("register merged", "new", rep.New, "updated", rep.Updated, "routes", len(routes))
	return rep, nil
}

// Read returns the parsed register, from Juce when yesterday is set.
func (g *Register) Read(ctx context.Context, yesterday bool) ([]Route, error) {
	name := sheets.SheetPolasci
	if yesterday {
		name = sheets.SheetJuce
	}
	raw, err := g.store.ReadRange(ctx, name, "A:J")
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	routes := Parse(raw)
	sortRoutes(routes)
	return routes, nil
}

// qualify filters ledger rows to today's non-future departures. During the
// late-night window (before 01:00) start times from 22:00 on are kept even
// though they compare greater than the wall clock.
func qualify(rows []ledger.Row, now time.Time) []ledger.Row {
	local := now.In(clock.Belgrade())
	today := clock.DateOnly(now)
	wall := local.Format("15:04:05")
	lateNight := local.Hour() < 1

	var out []ledger.Row
	for _, r := range rows {
		if r.Datum != today || r.Polazak == "" || r.Polazak == "N/A" {
			continue
		}
		if r.Polazak <= wall {
			out = append(out, r)
			continue
		}
		if lateNight && r.Polazak >= "22" {
			out = append(out, r)
		}
	}
	return out
}

// dedupe keeps, per (vehicle, route, direction), only the latest start
// time, so a bus that completed several runs contributes one departure.
func dedupe(rows []ledger.Row) []ledger.Row {
	type tripleKey struct{ vehicle, route, direction string }
	best := make(map[tripleKey]int, len(rows))
	var out []ledger.Row
	for _, r := range rows {
		k := tripleKey{r.Vozilo, r.Linija, r.Smer}
		if i, ok := best[k]; ok {
			if r.Polazak > out[i].Polazak {
				out[i] = r
			}
			continue
		}
		best[k] = len(out)
		out = append(out, r)
	}
	return out
}

// regenerate clears Polasci and rewrites the whole canonical layout, then
// applies header styling in one batch.
func (g *Register) regenerate(ctx context.Context, routes []Route) error {
	var rows [][]string
	var formats []sheets.FormatRequest
	for _, r := range routes {
		formats = append(formats, formatAt(len(rows), routeFormat))
		rows = append(rows, []string{routePrefix + r.Name})
		for _, d := range r.Directions {
			formats = append(formats, formatAt(len(rows), directionFormat))
			rows = append(rows, []string{directionPrefix + d.Name})
			formats = append(formats, formatAt(len(rows), columnFormat))
			rows = append(rows, append([]string(nil), ColumnHeader...))
			for _, e := range d.Entries {
				rows = append(rows, []string{e.StartTime, e.Vehicle, e.LastSeen})
			}
			rows = append(rows, []string{""})
		}
	}

	if err := g.store.ClearRange(ctx, sheets.SheetPolasci, "A:J"); err != nil {
		return fmt.Errorf("clear register: %w", err)
	}
	for start := 0; start < len(rows); start += sheets.BatchSize {
		end := start + sheets.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		rng := fmt.Sprintf("A%d", start+1)
		if err := g.store.WriteRange(ctx, sheets.SheetPolasci, rng, rows[start:end]); err != nil {
			return fmt.Errorf("write register rows %s: %w", rng, err)
		}
	}
	if len(formats) > 0 {
		if err := g.store.BatchFormat(ctx, sheets.SheetPolasci, formats); err != nil {
			g.logger.Warn("register format failed", "error", err)
		}
	}
	return nil
}

func formatAt(row int, f sheets.CellFormat) sheets.FormatRequest {
	return sheets.FormatRequest{
		StartRow: row, EndRow: row + 1,
		StartCol: 0, EndCol: len(ColumnHeader),
		Format: f,
	}
}

// rebuild regroups the flat key set into the nested layout. Ordering is
// left to sortRoutes.
func rebuild(entries map[Key]Entry) []Route {
	type dirKey struct{ route, direction string }
	routeIdx := make(map[string]int)
	dirIdx := make(map[dirKey]int)
	var routes []Route
	for key, e := range entries {
		ri, ok := routeIdx[key.Route]
		if !ok {
			ri = len(routes)
			routeIdx[key.Route] = ri
			routes = append(routes, Route{Name: key.Route})
		}
		dk := dirKey{key.Route, key.Direction}
		di, ok := dirIdx[dk]
		if !ok {
			di = len(routes[ri].Directions)
			dirIdx[dk] = di
			routes[ri].Directions = append(routes[ri].Directions, Direction{Name: key.Direction})
		}
		d := &routes[ri].Directions[di]
		d.Entries = append(d.Entries, e)
	}
	return routes
}
