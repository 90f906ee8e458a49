// Package refdata holds the static reference data loaded once at startup:
// the stop table, the route display-name map and the shape polylines.
// All lookups are read-only after Load.
package refdata

import (
	"encoding/json"
	"log/slog"
	"os"
)

// Stop is a static stop record keyed by canonical stop id.
type Stop struct {
	Name   string     `json:"name"`
	Coords [2]float64 `json:"coords"` // lat, lon
}

// Point is one vertex of a shape polyline.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Store exposes the reference lookups. A missing source file degrades to an
// empty map; callers must tolerate misses.
type Store struct {
	stops  map[string]Stop
	routes map[string]string
	shapes map[string][]Point
}

// Load reads the stop table, the route display-name map and the shape files.
// Unreadable files are logged and skipped rather than failing startup.
func Load(stopsPath, routeNamesPath string, shapesPaths []string, logger *slog.Logger) *Store {
	s := &Store{
		stops:  make(map[string]Stop),
		routes: make(map[string]string),
		shapes: make(map[string][]Point),
	}

	if err := loadJSON(stopsPath, &s.stops); err != nil {
		logger.Warn("stops table unavailable", "path", stopsPath, "error", err)
		s.stops = make(map[string]Stop)
	}
	if err := loadJSON(routeNamesPath, &s.routes); err != nil {
		logger.Warn("route display names unavailable", "path", routeNamesPath, "error", err)
		s.routes = make(map[string]string)
	}
	acc := make(map[string][]seqPoint)
	for _, p := range shapesPaths {
		if err := loadShapes(p, acc); err != nil {
			logger.Warn("shape file unavailable", "path", p, "error", err)
		}
	}
	s.shapes = finalizeShapes(acc)

	logger.Info("reference data loaded",
		"stops", len(s.stops),
		"routes", len(s.routes),
		"shapes", len(s.shapes),
	)
	return s
}

// Stop looks up a stop by canonical id.
func (s *Store) Stop(id string) (Stop, bool) {
	st, ok := s.stops[id]
	return st, ok
}

// RouteDisplay returns the display name for a normalized route id, or the
// id itself when no mapping exists.
func (s *Store) RouteDisplay(routeID string) string {
	if name, ok := s.routes[routeID]; ok {
		return name
	}
	return routeID
}

// Shape returns the polyline for a shape key, sorted by sequence.
func (s *Store) Shape(shapeID string) ([]Point, bool) {
	pts, ok := s.shapes[shapeID]
	return pts, ok
}

// ShapeForRoute returns the polyline for a route id, applying normalization
// and the zero-padding used by the shape files.
func (s *Store) ShapeForRoute(routeID string) ([]Point, bool) {
	return s.Shape(PadRouteID(NormRouteID(routeID)))
}

// StopCount reports the number of loaded stops.
func (s *Store) StopCount() int { return len(s.stops) }

func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
