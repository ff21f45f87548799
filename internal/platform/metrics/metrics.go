// Package metrics holds the Prometheus collectors of an extraction run.
// Collectors live on a private registry so tests and parallel runs never
// collide; the CLI dumps them in text exposition format when asked
package metrics

import (
	"time"

	perr "queststat/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "queststat"

// Metrics contains all collectors used by the stats and monitoring services
type Metrics struct {
	Runs          *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	Parsed        *prometheus.CounterVec
	ParseErrors   *prometheus.CounterVec
	PagesInFlight prometheus.Gauge
	registry      *prometheus.Registry
}

// New builds the collectors and registers them on a fresh registry
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by pipeline and outcome",
		}, []string{"pipeline", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"pipeline"}),
		Parsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parsed_items_total",
			Help:      "Items extracted from scraped tables by kind",
		}, []string{"kind"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Cells or pages that failed to parse by stage",
		}, []string{"stage"}),
		PagesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitoring_pages_in_flight",
			Help:      "Monitoring pages currently being parsed",
		}),
	}

	for _, c := range []prometheus.Collector{m.Runs, m.RunDuration, m.Parsed, m.ParseErrors, m.PagesInFlight} {
		if err := m.registry.Register(c); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "register metrics")
		}
	}
	return m, nil
}

// MustNew is New that panics; for wiring code and tests
func MustNew() *Metrics {
	m, err := New()
	if err != nil {
		panic(err)
	}
	return m
}

// ObserveRun records the outcome and wall time of one pipeline run
func (m *Metrics) ObserveRun(pipeline string, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = perr.CodeOf(err).String()
	}
	m.Runs.WithLabelValues(pipeline, outcome).Inc()
	m.RunDuration.WithLabelValues(pipeline).Observe(took.Seconds())
}

// AddParsed counts n extracted items of a kind (records, levels, entries)
func (m *Metrics) AddParsed(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Parsed.WithLabelValues(kind).Add(float64(n))
}

// ParseError counts one failure at stage
func (m *Metrics) ParseError(stage string) {
	if m == nil {
		return
	}
	m.ParseErrors.WithLabelValues(stage).Inc()
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile dumps every collector to path in text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "write metrics to %s", path)
	}
	return nil
}
