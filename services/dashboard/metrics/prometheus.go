package metrics

import (
	"net/http"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "healthvital_"

type prometheusCollector struct {
	registry    *prometheus.Registry
	ticks       prometheus.Counter
	tickFaults  prometheus.Counter
	tickLatency prometheus.Histogram
	alerts      *prometheus.CounterVec
	vitals      *prometheus.GaugeVec
	devices     prometheus.Gauge
}

// NewPrometheusCollector creates the collector on its own registry, so several engines can live in one process
func NewPrometheusCollector() *prometheusCollector {
	c := &prometheusCollector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "ticks_total",
			Help: "Completed simulation ticks",
		}),
		tickFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "tick_faults_total",
			Help: "Simulation ticks abandoned because of an invariant violation",
		}),
		tickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "tick_duration_seconds",
			Help:    "Duration of one simulation tick, subscribers excluded",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Alerts raised by rule and severity",
			},
			[]string{"rule", "severity"},
		),
		vitals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "vital_value",
				Help: "Current value of each simulated vital",
			},
			[]string{"kind"},
		),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "devices_connected",
			Help: "Monitoring devices reported as connected",
		}),
	}

	c.registry.MustRegister(c.ticks, c.tickFaults, c.tickLatency, c.alerts, c.vitals, c.devices)

	return c
}

// ObserveTick records a completed tick and its duration
func (c *prometheusCollector) ObserveTick(duration time.Duration) {
	c.ticks.Inc()
	c.tickLatency.Observe(duration.Seconds())
}

// IncTickFault records an abandoned tick
func (c *prometheusCollector) IncTickFault() {
	c.tickFaults.Inc()
}

// IncAlert records a raised alert
func (c *prometheusCollector) IncAlert(rule string, severity common.Severity) {
	c.alerts.WithLabelValues(rule, string(severity)).Inc()
}

// SetVital publishes the current value of a vital
func (c *prometheusCollector) SetVital(kind common.VitalKind, value float64) {
	c.vitals.WithLabelValues(string(kind)).Set(value)
}

// SetConnectedDevices publishes the number of connected devices
func (c *prometheusCollector) SetConnectedDevices(count int) {
	c.devices.Set(float64(count))
}

// Handler returns the exposition handler of the collector's registry
func (c *prometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *prometheusCollector) IsInterfaceNil() bool {
	return c == nil
}
