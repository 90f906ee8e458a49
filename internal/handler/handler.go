// Package handler implements the HTTP API: the monitor-facing tick
// trigger, the live snapshot for the map UI and the admin reads of the
// accumulated sheets.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"bgbus/internal/clock"
	"bgbus/internal/config"
	"bgbus/internal/enrich"
	"bgbus/internal/feed"
	"bgbus/internal/ledger"
	"bgbus/internal/refdata"
	"bgbus/internal/register"
	"bgbus/internal/tick"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	cfg    *config.Config
	feed   *feed.Client
	ref    *refdata.Store
	led    *ledger.Ledger
	reg    *register.Register
	runner *tick.Runner
	clk    clock.Clock
	logger *slog.Logger
}

// New creates a Handler.
func New(cfg *config.Config, fc *feed.Client, ref *refdata.Store, led *ledger.Ledger, reg *register.Register, runner *tick.Runner, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		feed:   fc,
		ref:    ref,
		led:    led,
		reg:    reg,
		runner: runner,
		clk:    clk,
		logger: logger,
	}
}

// authorized is the auth gate for the mutating admin endpoints. With no
// admin token configured the gate is open (single-operator deployments).
func (h *Handler) authorized(r *http.Request) bool {
	if h.cfg.AdminToken == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == h.cfg.AdminToken
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response encode failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, details any) {
	body := map[string]any{"success": false, "error": msg}
	if details != nil {
		body["details"] = details
	}
	h.writeJSON(w, status, body)
}

// lineFilter parses the lines query parameter into a set of normalized
// route ids; nil means no filtering.
func lineFilter(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			set[refdata.NormRouteID(part)] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// tripUpdateView is the wire form of a trip update in the snapshot reply.
type tripUpdateView struct {
	VehicleID   string `json:"vehicleId"`
	Destination string `json:"destination"`
	Delay       *int32 `json:"delay,omitempty"`
}

func tripUpdateViews(updates []feed.TripUpdate) []tripUpdateView {
	out := make([]tripUpdateView, 0, len(updates))
	for _, tu := range updates {
		out = append(out, tripUpdateView{
			VehicleID:   tu.VehicleID,
			Destination: tu.TerminalStopID,
			Delay:       tu.DelaySeconds,
		})
	}
	return out
}

func filterVehicles(vehicles []enrich.Vehicle, lines map[string]bool) []enrich.Vehicle {
	if lines == nil {
		return vehicles
	}
	out := make([]enrich.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if lines[v.RouteID] {
			out = append(out, v)
		}
	}
	return out
}
