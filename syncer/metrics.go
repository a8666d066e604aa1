package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsPrefix = "stakesync"

// Metrics exposes query and polling counters. A nil *Metrics records nothing.
type Metrics struct {
	queryAttempts  *prometheus.CounterVec
	queryExhausted *prometheus.CounterVec
	passes         *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	runningLoops   prometheus.Gauge
	droppedEvents  prometheus.Counter
	failedVaults   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "_query_attempts_total",
			Help: "Sub-state query attempts by field and outcome",
		}, []string{"field", "outcome"}),
		queryExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "_query_exhausted_total",
			Help: "Queries that failed on every attempt",
		}, []string{"field"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "_polling_passes_total",
			Help: "Polling passes by role, data class and outcome",
		}, []string{"role", "class", "outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricsPrefix + "_polling_pass_duration_seconds",
			Help:    "Duration of one fetch, derive and commit pass",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"role", "class"}),
		runningLoops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricsPrefix + "_polling_loops_running",
			Help: "Polling loops currently running",
		}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "_events_dropped_total",
			Help: "Scheduler events dropped because the buffer was full",
		}),
		failedVaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "_vault_reads_failed_total",
			Help: "Vaults reported with zero figures after a failed read",
		}),
	}

	reg.MustRegister(
		m.queryAttempts,
		m.queryExhausted,
		m.passes,
		m.passDuration,
		m.runningLoops,
		m.droppedEvents,
		m.failedVaults,
	)
	return m
}

func (m *Metrics) queryAttempt(field, outcome string) {
	if m == nil {
		return
	}
	m.queryAttempts.WithLabelValues(field, outcome).Inc()
}

func (m *Metrics) queryExhaust(field string) {
	if m == nil {
		return
	}
	m.queryExhausted.WithLabelValues(field).Inc()
}

func (m *Metrics) pass(key Key, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(string(key.Role), string(key.Class), outcome).Inc()
	m.passDuration.WithLabelValues(string(key.Role), string(key.Class)).Observe(d.Seconds())
}

func (m *Metrics) loopStarted() {
	if m == nil {
		return
	}
	m.runningLoops.Inc()
}

func (m *Metrics) loopStopped() {
	if m == nil {
		return
	}
	m.runningLoops.Dec()
}

func (m *Metrics) eventDropped() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}

func (m *Metrics) vaultFailed() {
	if m == nil {
		return
	}
	m.failedVaults.Inc()
}
