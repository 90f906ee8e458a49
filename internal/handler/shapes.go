package handler

import (
	"net/http"

	"bgbus/internal/refdata"
)

// Shapes serves the polyline for one route, for drawing on the map.
func (h *Handler) Shapes(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if route == "" {
		h.writeError(w, http.StatusBadRequest, "missing route parameter", nil)
		return
	}
	points, ok := h.ref.ShapeForRoute(route)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no shape for route", route)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"route":  refdata.NormRouteID(route),
		"points": points,
	})
}
