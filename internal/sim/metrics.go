package sim

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"robofleet-sim/internal/telemetry"
)

// Metrics instruments the integration service. Each Metrics owns its own
// registry so several services can coexist in one process.
type Metrics struct {
	reg         *prometheus.Registry
	updates     *prometheus.CounterVec
	events      *prometheus.CounterVec
	writeErrors prometheus.Counter
	dropped     prometheus.Gauge
	robots      *prometheus.GaugeVec
	batchSize   prometheus.Histogram
}

// NewMetrics creates and registers the service collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetsim_updates_total",
			Help: "Telemetry updates delivered to writers by kind.",
		}, []string{"kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetsim_events_total",
			Help: "Telemetry events by type and severity.",
		}, []string{"type", "severity"}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetsim_write_errors_total",
			Help: "Writer failures while delivering telemetry.",
		}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetsim_dropped_updates",
			Help: "Updates dropped by the generator because the buffer was full.",
		}),
		robots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetsim_robots",
			Help: "Simulated robots by status.",
		}, []string{"status"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetsim_batch_size",
			Help:    "Updates per writer batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		}),
	}
	m.reg.MustRegister(m.updates, m.events, m.writeErrors, m.dropped, m.robots, m.batchSize)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) observeBatch(batch []telemetry.Update) {
	m.batchSize.Observe(float64(len(batch)))
	for _, u := range batch {
		m.updates.WithLabelValues(string(u.Kind())).Inc()
		if mu, ok := u.(telemetry.MetricsUpdate); ok {
			for _, e := range mu.Events {
				m.events.WithLabelValues(string(e.Type), string(e.Severity)).Inc()
			}
		}
	}
}

func (m *Metrics) observeFleet(states map[string]telemetry.RobotState, dropped uint64) {
	m.dropped.Set(float64(dropped))
	counts := make(map[telemetry.RobotStatus]int, len(telemetry.Statuses))
	for _, st := range states {
		counts[st.Status]++
	}
	for _, s := range telemetry.Statuses {
		m.robots.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
