package feed

import "time"

// Vehicle is one live vehicle position extracted from the upstream feed.
// All fields are raw feed values; normalization happens during enrichment.
type Vehicle struct {
	ID         string
	Label      string // garage number
	RouteIDRaw string
	StartTime  string // HH:MM:SS
	Lat        float64
	Lon        float64
}

// TripUpdate carries the terminal stop (and optional delay) for a vehicle.
type TripUpdate struct {
	VehicleID      string
	TerminalStopID string
	DelaySeconds   *int32
}

// Snapshot is the parsed result of one feed fetch. It lives for a single
// tick; nothing in it is retained between ticks.
type Snapshot struct {
	Vehicles    []Vehicle
	TripUpdates []TripUpdate
	FetchedAt   time.Time
}

// TerminalByVehicle builds the vehicleId -> terminal stop index used by
// enrichment.
func (s *Snapshot) TerminalByVehicle() map[string]string {
	m := make(map[string]string, len(s.TripUpdates))
	for _, tu := range s.TripUpdates {
		m[tu.VehicleID] = tu.TerminalStopID
	}
	return m
}
