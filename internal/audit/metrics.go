package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"paramcheck/internal/engine"
)

// Metrics holds Prometheus metrics for audit runs. A nil *Metrics records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	sectorsTotal     *prometheus.CounterVec
	recordsTotal     *prometheus.CounterVec
	diagnosticsTotal *prometheus.CounterVec
	sectorDuration   prometheus.Histogram
	lastRun          prometheus.Gauge
}

// NewMetrics creates the audit metrics and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		registry: registry,
		sectorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paramcheck",
			Subsystem: "audit",
			Name:      "sectors_total",
			Help:      "Sectors processed by the audit runner",
		}, []string{"result"}),

		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paramcheck",
			Subsystem: "audit",
			Name:      "records_total",
			Help:      "Error records produced, by MO and error type",
		}, []string{"mo_name", "error_type"}),

		diagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paramcheck",
			Subsystem: "audit",
			Name:      "diagnostics_total",
			Help:      "Engine diagnostics, by kind",
		}, []string{"kind"}),

		sectorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "paramcheck",
			Subsystem: "audit",
			Name:      "sector_duration_seconds",
			Help:      "Time spent evaluating one sector",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paramcheck",
			Subsystem: "audit",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed audit run",
		}),
	}

	registry.MustRegister(
		m.sectorsTotal,
		m.recordsTotal,
		m.diagnosticsTotal,
		m.sectorDuration,
		m.lastRun,
	)
	return m
}

func (m *Metrics) observeSector(result *engine.SectorResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sectorsTotal.WithLabelValues("evaluated").Inc()
	m.sectorDuration.Observe(elapsed.Seconds())
	for _, record := range result.Errors() {
		m.recordsTotal.WithLabelValues(record.MOName, string(record.Type)).Inc()
	}
	for _, d := range result.Diagnostics() {
		m.diagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
	}
}

func (m *Metrics) observeSkipped() {
	if m == nil {
		return
	}
	m.sectorsTotal.WithLabelValues("skipped").Inc()
}

func (m *Metrics) observeRun(at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
