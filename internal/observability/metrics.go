package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "noaa_tides"

// Metrics holds the Prometheus collectors for sensor refreshes and publishing.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec   // labels: kind, outcome={updated,partial,skipped,failed}
	RefreshErrors   *prometheus.CounterVec   // labels: kind, class={connectivity,malformed,no_data,other}
	RefreshDuration *prometheus.HistogramVec // labels: kind
	SensorAvailable *prometheus.GaugeVec     // labels: sensor_id, kind
	PublishFailures prometheus.Counter
}

var refreshBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshTotal,
		m.RefreshErrors,
		m.RefreshDuration,
		m.SensorAvailable,
		m.PublishFailures,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Sensor refreshes by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Failed or partial sensor refreshes by kind and error class.",
		}, []string{"kind", "class"}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a single sensor refresh, including upstream fetches.",
			Buckets:   refreshBuckets,
		}, []string{"kind"}),
		SensorAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_available",
			Help:      "1 when the sensor has a current value, 0 otherwise.",
		}, []string{"sensor_id", "kind"}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Snapshots that could not be published to the message broker.",
		}),
	}
}
