package handler

import (
	"net/http"

	"bgbus/internal/clock"
	"bgbus/internal/enrich"
)

// GetSheetData serves the vehicle ledger rows for the admin view.
func (h *Handler) GetSheetData(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rows, err := h.led.Rows(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to read ledger sheet", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rows,
		"count":   len(rows),
	})
}

// Config serves the non-secret runtime configuration the map UI needs:
// refresh cadence, initial viewport over Belgrade and the marker palette.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"refreshIntervalMs": 15000,
		"mapCenter":         [2]float64{44.8125, 20.4612},
		"mapZoom":           13,
		"palette":           enrich.Palette,
		"timezone":          h.cfg.Timezone,
		"localTime":         clock.Timestamp(h.clk.Now()),
		"stops":             h.ref.StopCount(),
	})
}
