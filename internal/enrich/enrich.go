// Package enrich validates the raw feed snapshot and attaches reference
// data: normalized route ids, display names, destination stops and the
// map-marker color hints. It is side-effect-free; per-vehicle rejections
// are counted, never fatal.
package enrich

import (
	"hash/fnv"
	"strings"

	"bgbus/internal/feed"
	"bgbus/internal/refdata"
)

// Palette is the marker color palette shared with the map UI.
var Palette = []string{
	"#e74c3c", "#3498db", "#9b59b6", "#2ecc71", "#f1c40f",
	"#e67e22", "#1abc9c", "#34495e", "#d35400", "#c0392b",
	"#2980b9", "#8e44ad", "#27ae60", "#f39c12", "#16a085",
}

// Vehicle is a validated live observation with reference data attached.
type Vehicle struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	RouteID     string  `json:"routeId"`
	DisplayName string  `json:"displayName"`
	StartTime   string  `json:"startTime"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DestStopID  string  `json:"destStopId"`
	DestName    string  `json:"destName"`
	Color       string  `json:"color"`
}

// Drops counts per-vehicle rejections by reason.
type Drops struct {
	BadGarageNumber int
	NoRoute         int
}

// Snapshot is the enriched form of one feed snapshot.
type Snapshot struct {
	Vehicles    []Vehicle
	TripUpdates []feed.TripUpdate
	FetchedAt   int64 // epoch millis
	Drops       Drops
}

// Enrich validates every vehicle in the snapshot and attaches destination
// and display data from the reference store.
func Enrich(snap *feed.Snapshot, ref *refdata.Store) *Snapshot {
	out := &Snapshot{
		TripUpdates: snap.TripUpdates,
		FetchedAt:   snap.FetchedAt.UnixMilli(),
	}
	terminals := snap.TerminalByVehicle()

	for _, v := range snap.Vehicles {
		if !ValidGarageNumber(v.Label) {
			out.Drops.BadGarageNumber++
			continue
		}
		routeID, ok := ResolveRoute(v.RouteIDRaw, terminals[v.ID], ref)
		if !ok {
			out.Drops.NoRoute++
			continue
		}

		destStopID := terminals[v.ID]
		if destStopID == "" {
			destStopID = "Unknown"
		}
		destName := destStopID
		if stop, ok := ref.Stop(refdata.NormStopID(destStopID)); ok {
			destName = stop.Name
		}

		startTime := v.StartTime
		if startTime == "" {
			startTime = "N/A"
		}

		out.Vehicles = append(out.Vehicles, Vehicle{
			ID:          v.ID,
			Label:       v.Label,
			RouteID:     routeID,
			DisplayName: ref.RouteDisplay(routeID),
			StartTime:   startTime,
			Lat:         v.Lat,
			Lon:         v.Lon,
			DestStopID:  destStopID,
			DestName:    destName,
			Color:       RouteColor(routeID),
		})
	}
	return out
}

// ValidGarageNumber applies the operator's garage-number rule: non-empty,
// and labels starting with 'P' must be at least six characters.
func ValidGarageNumber(label string) bool {
	if label == "" {
		return false
	}
	if strings.HasPrefix(label, "P") {
		return len(label) >= 6
	}
	return true
}

// RouteColor deterministically assigns a palette color to a route so that
// markers keep their color across snapshots.
func RouteColor(routeID string) string {
	h := fnv.New32a()
	h.Write([]byte(routeID))
	return Palette[h.Sum32()%uint32(len(Palette))]
}
