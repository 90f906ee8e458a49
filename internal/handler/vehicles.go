package handler

import (
	"net/http"

	"bgbus/internal/enrich"
)

// Vehicles serves the live enriched snapshot for the map UI. An optional
// lines parameter restricts the reply to a comma-separated set of routes.
func (h *Handler) Vehicles(w http.ResponseWriter, r *http.Request) {
	snap, err := h.feed.Fetch(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "live feed unavailable", err.Error())
		return
	}
	enriched := enrich.Enrich(snap, h.ref)

	vehicles := filterVehicles(enriched.Vehicles, lineFilter(r.URL.Query().Get("lines")))
	if vehicles == nil {
		vehicles = []enrich.Vehicle{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"vehicles":    vehicles,
		"tripUpdates": tripUpdateViews(enriched.TripUpdates),
		"timestamp":   enriched.FetchedAt,
	})
}
