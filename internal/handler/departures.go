package handler

import (
	"errors"
	"net/http"

	"bgbus/internal/register"
	"bgbus/internal/sheets"
)

// Departures serves the parsed register: the current day by default, the
// Juce archive with yesterday=true.
func (h *Handler) Departures(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	yesterday := r.URL.Query().Get("yesterday") == "true"
	routes, err := h.reg.Read(r.Context(), yesterday)
	if err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "routes": []register.Route{}})
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to read departures sheet", err.Error())
		return
	}
	if routes == nil {
		routes = []register.Route{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"routes":  routes,
	})
}

// MergeDepartures triggers a register merge outside the regular tick.
// Gated by the admin token when one is configured.
func (h *Handler) MergeDepartures(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rep, err := h.reg.Merge(r.Context(), h.clk.Now())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "departures merge failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"new":     rep.New,
		"updated": rep.Updated,
	})
}
