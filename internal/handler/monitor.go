package handler

import (
	"errors"
	"net/http"

	"bgbus/internal/tick"
)

// HourlyCheck is the monitor-facing tick trigger. The response is a single
// text line; the monitor treats any body not starting with SUCCESS as a
// failure, so errors are rendered into the line rather than a JSON body.
func (h *Handler) HourlyCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	rep, err := h.runner.Run(r.Context())
	switch {
	case errors.Is(err, tick.ErrBusy):
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(tick.ErrorLine(rep.Timestamp, err)))
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(tick.ErrorLine(rep.Timestamp, err)))
	case rep.PartialFailure != "":
		// Ledger committed; the monitor still sees a failure so the gap
		// shows up in uptime history.
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(tick.ErrorLine(rep.Timestamp, errors.New(rep.PartialFailure))))
	default:
		w.Write([]byte(rep.Line()))
	}
}
