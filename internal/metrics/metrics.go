// Package metrics exposes the core's operational counters on a private
// prometheus registry, served at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instrument set for the aggregation core.
type Metrics struct {
	registry *prometheus.Registry

	ticksTotal        *prometheus.CounterVec
	tickDuration      prometheus.Histogram
	vehiclesSeen      prometheus.Counter
	vehiclesNew       prometheus.Counter
	vehiclesUpdated   prometheus.Counter
	departuresNew     prometheus.Counter
	departuresUpdated prometheus.Counter
	rotationsTotal    prometheus.Counter
	feedFailures      prometheus.Counter
	lastSuccess       prometheus.Gauge
}

// New creates and registers the instrument set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bgbus_ticks_total",
			Help: "Tick runs by outcome (success, error, busy).",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bgbus_tick_duration_seconds",
			Help:    "Wall time of one tick run.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		vehiclesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_vehicles_seen_total",
			Help: "Valid enriched vehicles processed across ticks.",
		}),
		vehiclesNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_ledger_vehicles_new_total",
			Help: "Vehicle rows appended to the ledger.",
		}),
		vehiclesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_ledger_vehicles_updated_total",
			Help: "Vehicle rows overwritten in the ledger.",
		}),
		departuresNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_register_departures_new_total",
			Help: "Departure entries added to the register.",
		}),
		departuresUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_register_departures_updated_total",
			Help: "Departure entries whose last-seen timestamp advanced.",
		}),
		rotationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_rotations_total",
			Help: "Daily register rotations performed.",
		}),
		feedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgbus_feed_failures_total",
			Help: "Upstream feed fetches that failed.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bgbus_last_success_timestamp_seconds",
			Help: "Unix time of the last fully successful tick.",
		}),
	}
	m.registry.MustRegister(
		m.ticksTotal, m.tickDuration,
		m.vehiclesSeen, m.vehiclesNew, m.vehiclesUpdated,
		m.departuresNew, m.departuresUpdated,
		m.rotationsTotal, m.feedFailures, m.lastSuccess,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTick records one tick run.
func (m *Metrics) ObserveTick(outcome string, dur time.Duration) {
	m.ticksTotal.WithLabelValues(outcome).Inc()
	m.tickDuration.Observe(dur.Seconds())
}

// AddVehicles records a ledger merge over total processed vehicles.
func (m *Metrics) AddVehicles(total, newCount, updated int) {
	m.vehiclesSeen.Add(float64(total))
	m.vehiclesNew.Add(float64(newCount))
	m.vehiclesUpdated.Add(float64(updated))
}

// AddDepartures records a register merge.
func (m *Metrics) AddDepartures(newCount, updated int) {
	m.departuresNew.Add(float64(newCount))
	m.departuresUpdated.Add(float64(updated))
}

// IncRotation records one daily rotation.
func (m *Metrics) IncRotation() {
	m.rotationsTotal.Inc()
}

// IncFeedFailure records one failed feed fetch.
func (m *Metrics) IncFeedFailure() {
	m.feedFailures.Inc()
}

// SetLastSuccess marks t as the newest successful tick.
func (m *Metrics) SetLastSuccess(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}
