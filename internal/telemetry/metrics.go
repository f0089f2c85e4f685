package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/maxvaer/actuatorhunt/internal/prober"
	"github.com/maxvaer/actuatorhunt/internal/scanner"
	"github.com/prometheus/client_golang/prometheus"
)

// Compile-time interface check.
var _ prober.Observer = (*Metrics)(nil)

// Metrics counts probes and their outcomes in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	probesTotal   *prometheus.CounterVec
	matchesTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the probe metrics.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actuatorhunt_probes_total",
				Help: "Probes sent, by signature and response status",
			},
			[]string{"signature", "status"},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actuatorhunt_matches_total",
				Help: "Probes whose response matched the signature",
			},
			[]string{"signature"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actuatorhunt_transport_errors_total",
				Help: "Probes that failed at the transport level",
			},
			[]string{"type"},
		),
		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "actuatorhunt_probe_duration_seconds",
				Help:    "Time from sending a probe to its outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"signature"},
		),
	}

	for _, c := range []prometheus.Collector{m.probesTotal, m.matchesTotal, m.errorsTotal, m.probeDuration} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}
	return m, nil
}

// ObserveProbe records one probe result.
func (m *Metrics) ObserveProbe(_ context.Context, r prober.Result) {
	name := r.Signature.Name
	m.probeDuration.WithLabelValues(name).Observe(r.Duration.Seconds())

	if r.Err != nil {
		m.probesTotal.WithLabelValues(name, "error").Inc()
		m.errorsTotal.WithLabelValues(errorType(r.Err)).Inc()
		return
	}
	m.probesTotal.WithLabelValues(name, strconv.Itoa(r.StatusCode)).Inc()
	if r.Matched {
		m.matchesTotal.WithLabelValues(name).Inc()
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile dumps the metrics in the Prometheus text format, suitable for
// the node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, scanner.ErrTimeout):
		return "timeout"
	case errors.Is(err, scanner.ErrTargetUnreachable):
		return "unreachable"
	case errors.Is(err, scanner.ErrBodyDecode):
		return "decode"
	default:
		return "other"
	}
}
