// Package register maintains the Polasci sheet: the current service day's
// departures grouped by route and direction, regenerated wholesale from the
// vehicle ledger on every merge. It also owns the daily rotation of Polasci
// into the Juce archive.
package register

import (
	"sort"
	"strconv"
	"strings"
)

// Sheet layout markers. These prefixes tag the row kinds inside Polasci
// and Juce and are part of the sheet contract.
const (
	routePrefix     = "Linija "
	directionPrefix = "Smer: "
	sentinelPrefix  = "Sheet resetovan"
)

// ColumnHeader is the per-direction column header row.
var ColumnHeader = []string{"Polazak", "Vozilo", "Poslednji put viđen"}

// Entry is one departure: a vehicle leaving a terminus at a start time.
type Entry struct {
	StartTime string `json:"polazak"`
	Vehicle   string `json:"vozilo"`
	LastSeen  string `json:"lastSeen"`
}

// Direction groups the departures toward one terminus.
type Direction struct {
	Name    string  `json:"direction"`
	Entries []Entry `json:"departures"`
}

// Route groups the directions of one line.
type Route struct {
	Name       string      `json:"route"`
	Directions []Direction `json:"directions"`
}

// Key identifies a departure uniquely within a service day.
type Key struct {
	Route     string
	Direction string
	StartTime string
	Vehicle   string
}

type rowKind int

const (
	kindBlank rowKind = iota
	kindSentinel
	kindRouteHeader
	kindDirectionHeader
	kindColumnHeader
	kindDeparture
)

func classify(row []string) rowKind {
	first := ""
	blank := true
	for _, c := range row {
		if c != "" {
			blank = false
			break
		}
	}
	if blank {
		return kindBlank
	}
	if len(row) > 0 {
		first = row[0]
	}
	switch {
	case strings.HasPrefix(first, sentinelPrefix):
		return kindSentinel
	case strings.HasPrefix(first, routePrefix):
		return kindRouteHeader
	case strings.HasPrefix(first, directionPrefix):
		return kindDirectionHeader
	case first == ColumnHeader[0]:
		return kindColumnHeader
	default:
		return kindDeparture
	}
}

// Parse walks the raw sheet rows and rebuilds the route → direction →
// departures structure. Unrecognized rows outside a direction block and
// the reset sentinel are skipped.
func Parse(rows [][]string) []Route {
	var routes []Route
	var curRoute *Route
	var curDir *Direction

	flushDir := func() {
		if curRoute != nil && curDir != nil {
			curRoute.Directions = append(curRoute.Directions, *curDir)
		}
		curDir = nil
	}
	flushRoute := func() {
		flushDir()
		if curRoute != nil {
			routes = append(routes, *curRoute)
		}
		curRoute = nil
	}

	for _, row := range rows {
		switch classify(row) {
		case kindRouteHeader:
			flushRoute()
			curRoute = &Route{Name: strings.TrimPrefix(row[0], routePrefix)}
		case kindDirectionHeader:
			flushDir()
			curDir = &Direction{Name: strings.TrimPrefix(row[0], directionPrefix)}
		case kindDeparture:
			if curRoute == nil || curDir == nil {
				continue
			}
			e := Entry{StartTime: cell(row, 0), Vehicle: cell(row, 1), LastSeen: cell(row, 2)}
			curDir.Entries = append(curDir.Entries, e)
		case kindColumnHeader, kindBlank, kindSentinel:
			// structural rows, nothing to collect
		}
	}
	flushRoute()
	return routes
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// sortRoutes orders routes by numeric prefix, numeric-only before ties,
// then lexicographically; directions alphabetically; entries by start time.
func sortRoutes(routes []Route) {
	for ri := range routes {
		r := &routes[ri]
		sort.Slice(r.Directions, func(i, j int) bool {
			return r.Directions[i].Name < r.Directions[j].Name
		})
		for di := range r.Directions {
			entries := r.Directions[di].Entries
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].StartTime != entries[j].StartTime {
					return entries[i].StartTime < entries[j].StartTime
				}
				return entries[i].Vehicle < entries[j].Vehicle
			})
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		a, b := routes[i].Name, routes[j].Name
		an, aok := numericPrefix(a)
		bn, bok := numericPrefix(b)
		switch {
		case aok && bok && an != bn:
			return an < bn
		case aok != bok:
			return aok // numbered routes before unnumbered
		default:
			return a < b
		}
	})
}

// numericPrefix extracts the leading digits of a route name.
func numericPrefix(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
