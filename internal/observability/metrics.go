package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// acquisition engine and its per-device controllers.
type Metrics struct {
	EventsConsumed        *prometheus.CounterVec // labels: type
	EventsInvalid         prometheus.Counter
	EventHandlingDuration prometheus.Histogram
	EngineRunning         prometheus.Gauge
	ControllersActive     prometheus.Gauge

	// Controller decision metrics.
	FixesReceived        prometheus.Counter
	FixesEmitted         prometheus.Counter
	RegionsArmed         prometheus.Counter
	RegionExits          prometheus.Counter
	CommandsIssued       *prometheus.CounterVec // labels: command
	AuthorizationChanges *prometheus.CounterVec // labels: scope
	PlatformErrors       prometheus.Counter
	EmissionFailures     prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.EventsConsumed,
		m.EventsInvalid,
		m.EventHandlingDuration,
		m.EngineRunning,
		m.ControllersActive,
		m.FixesReceived,
		m.FixesEmitted,
		m.RegionsArmed,
		m.RegionExits,
		m.CommandsIssued,
		m.AuthorizationChanges,
		m.PlatformErrors,
		m.EmissionFailures,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "events_consumed_total",
			Help:      "Platform events read from the source topic, by event type.",
		}, []string{"type"}),
		EventsInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "events_invalid_total",
			Help:      "Source messages that could not be decoded into a platform event.",
		}),
		EventHandlingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "location_provider",
			Name:      "event_handling_duration_seconds",
			Help:      "Duration of one controller dispatch including command and emission delivery.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "location_provider",
			Name:      "engine_running",
			Help:      "1 when the acquisition engine is active, 0 when shut down.",
		}),
		ControllersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "location_provider",
			Name:      "controllers_active",
			Help:      "Number of device controllers currently instantiated.",
		}),
		FixesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "fixes_received_total",
			Help:      "Raw fixes delivered in batches across all devices.",
		}),
		FixesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "fixes_emitted_total",
			Help:      "Best fixes emitted to the consumer after selection.",
		}),
		RegionsArmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "regions_armed_total",
			Help:      "Stationary regions armed, including drift re-arms.",
		}),
		RegionExits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "region_exits_total",
			Help:      "Region-exit events received from devices.",
		}),
		CommandsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "commands_issued_total",
			Help:      "Platform commands issued, by command.",
		}, []string{"command"}),
		AuthorizationChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "authorization_changes_total",
			Help:      "Authorization scope changes reported to consumers, by scope.",
		}, []string{"scope"}),
		PlatformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "platform_errors_total",
			Help:      "Platform error events forwarded to consumers.",
		}),
		EmissionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_provider",
			Name:      "emission_failures_total",
			Help:      "Consumer deliveries that returned an error.",
		}),
	}
}
