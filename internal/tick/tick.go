// Package tick orchestrates one ingestion run: rotate if due, fetch the
// live snapshot, enrich it and commit the ledger then the register. Runs
// are serialized; an overlapping trigger is rejected, never queued.
package tick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bgbus/internal/clock"
	"bgbus/internal/enrich"
	"bgbus/internal/feed"
	"bgbus/internal/ledger"
	"bgbus/internal/metrics"
	"bgbus/internal/refdata"
	"bgbus/internal/register"
)

// ErrBusy is returned when a tick is triggered while one is running.
var ErrBusy = errors.New("tick already in progress")

// softDeadline bounds one whole run; in-flight sheet writes still finish
// under their own per-call timeouts.
const softDeadline = 120 * time.Second

// Report is the structured summary of one tick run.
type Report struct {
	NewVehicles       int
	UpdatedVehicles   int
	TotalProcessed    int
	NewDepartures     int
	UpdatedDepartures int
	RotationPerformed bool
	FeedFailure       bool
	PartialFailure    string // register stage error on an otherwise good run
	Timestamp         string
}

// Line renders the report as the monitor contract's single text line. The
// external monitor treats any body not starting with SUCCESS as a failure.
func (r Report) Line() string {
	s := fmt.Sprintf("SUCCESS - Updated at %s | Vehicles: %d | New: %d | Updated: %d",
		r.Timestamp, r.TotalProcessed, r.NewVehicles, r.UpdatedVehicles)
	if r.RotationPerformed {
		s += " | RESET EXECUTED"
	}
	return s
}

// ErrorLine renders a failed run for the monitor.
func ErrorLine(ts string, err error) string {
	return fmt.Sprintf("ERROR - Failed at %s: %v", ts, err)
}

// Runner drives the pipeline. A process holds exactly one.
type Runner struct {
	feed    *feed.Client
	ref     *refdata.Store
	ledger  *ledger.Ledger
	reg     *register.Register
	rotator *register.Rotator
	clk     clock.Clock
	met     *metrics.Metrics
	logger  *slog.Logger

	mu sync.Mutex
}

// NewRunner wires the pipeline stages together.
func NewRunner(fc *feed.Client, ref *refdata.Store, led *ledger.Ledger, reg *register.Register, rot *register.Rotator, clk clock.Clock, met *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		feed:    fc,
		ref:     ref,
		ledger:  led,
		reg:     reg,
		rotator: rot,
		clk:     clk,
		met:     met,
		logger:  logger,
	}
}

// Run executes one tick. It returns ErrBusy immediately when a previous
// run still holds the lock. Any other error means nothing usable was
// committed this run; a partial register failure is carried in the report
// instead.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if !r.mu.TryLock() {
		r.met.ObserveTick("busy", 0)
		return Report{Timestamp: clock.Timestamp(r.clk.Now())}, ErrBusy
	}
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, softDeadline)
	defer cancel()

	started := time.Now()
	now := r.clk.Now()
	rep := Report{Timestamp: clock.Timestamp(now)}
	r.logger.Info("tick started", "at", rep.Timestamp)

	rotated, err := r.rotator.MaybeRotate(ctx, now)
	if err != nil {
		// The register merge below regenerates Polasci either way; a
		// failed archive only costs yesterday's snapshot.
		r.logger.Error("rotation failed", "error", err)
	}
	rep.RotationPerformed = rotated
	if rotated {
		r.met.IncRotation()
	}

	snap, err := r.feed.Fetch(ctx)
	if err != nil {
		rep.FeedFailure = true
		r.met.IncFeedFailure()
		r.met.ObserveTick("error", time.Since(started))
		return rep, fmt.Errorf("fetch snapshot: %w", err)
	}

	enriched := enrich.Enrich(snap, r.ref)
	rep.TotalProcessed = len(enriched.Vehicles)
	if d := enriched.Drops; d.BadGarageNumber > 0 || d.NoRoute > 0 {
		r.logger.Info("vehicles dropped", "badGarageNumber", d.BadGarageNumber, "noRoute", d.NoRoute)
	}

	vl, err := r.ledger.Merge(ctx, enriched.Vehicles, now)
	if err != nil {
		r.met.ObserveTick("error", time.Since(started))
		return rep, fmt.Errorf("ledger merge: %w", err)
	}
	rep.NewVehicles = vl.New
	rep.UpdatedVehicles = vl.Updated
	r.met.AddVehicles(rep.TotalProcessed, vl.New, vl.Updated)

	dr, err := r.reg.Merge(ctx, now)
	if err != nil {
		// Ledger is committed; the next tick retries the register from
		// the same Baza state.
		rep.PartialFailure = err.Error()
		r.logger.Error("register merge failed", "error", err)
		r.met.ObserveTick("partial", time.Since(started))
		return rep, nil
	}
	rep.NewDepartures = dr.New
	rep.UpdatedDepartures = dr.Updated
	r.met.AddDepartures(dr.New, dr.Updated)

	r.met.ObserveTick("success", time.Since(started))
	r.met.SetLastSuccess(now)
	r.logger.Info("tick finished",
		"vehicles", rep.TotalProcessed,
		"newVehicles", vl.New, "updatedVehicles", vl.Updated,
		"newDepartures", dr.New, "updatedDepartures", dr.Updated,
		"rotated", rotated)
	return rep, nil
}
