package enrich

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"bgbus/internal/refdata"
)

// terminusRoutes maps known terminal stop ids to the route that ends there.
// The feed occasionally ships vehicles with a blank routeId on exactly these
// suburban lines.
var terminusRoutes = map[string]string{
	"29734": "492",
	"29735": "492",
	"28344": "492",
	"21005": "80",
	"22908": "80",
	"21691": "40A",
	"20256": "40A",
}

// terminusNameRules is the fallback when the stop id is unknown: substring
// match on the terminal stop's name, compared case- and diacritic-folded.
var terminusNameRules = []struct {
	substrings []string
	route      string
}{
	{[]string{"sumice", "mladenovac as"}, "492"},
	{[]string{"ikea", "cukaricka padina"}, "80"},
	{[]string{"banjica 2", "studentski trg"}, "41"},
}

// ResolveRoute decides the route id for a vehicle. Vehicles whose feed
// routeId is usable are normalized and accepted directly; otherwise the
// terminal stop decides, and a vehicle with no decidable route is rejected.
// Rejecting is preferred over mislabeling.
func ResolveRoute(routeIDRaw, terminalStopID string, ref *refdata.Store) (string, bool) {
	if routeIDRaw != "" && routeIDRaw != "undefined" {
		return refdata.NormRouteID(routeIDRaw), true
	}
	if terminalStopID == "" {
		return "", false
	}

	canonical := refdata.NormStopID(terminalStopID)
	if route, ok := terminusRoutes[terminalStopID]; ok {
		return route, true
	}
	if route, ok := terminusRoutes[canonical]; ok {
		return route, true
	}

	stop, ok := ref.Stop(canonical)
	if !ok {
		return "", false
	}
	name := foldName(stop.Name)
	for _, rule := range terminusNameRules {
		for _, sub := range rule.substrings {
			if strings.Contains(name, sub) {
				return rule.route, true
			}
		}
	}
	return "", false
}

var diacriticRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName lowercases a stop name and strips diacritics, so that
// "Čukarička padina" matches "cukaricka padina".
func foldName(s string) string {
	folded, _, err := transform.String(diacriticRemover, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	// Serbian "đ" is a standalone letter, not a combining mark.
	return strings.ReplaceAll(folded, "đ", "dj")
}
