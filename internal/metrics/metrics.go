// Package metrics exposes Prometheus instruments for HTTP traffic, settings
// reloads and backend probes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugenenazirov/weblate-settings/internal/probe"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

const namespace = "weblate_settings"

// Metrics holds every instrument on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
	Reloads      *prometheus.CounterVec
	LastReload   prometheus.Gauge
	Findings     *prometheus.GaugeVec
	BackendUp    *prometheus.GaugeVec
	BackendRTT   *prometheus.GaugeVec
}

// New registers the instruments together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
			[]string{"path", "method", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
			[]string{"path", "method"},
		),
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "reloads_total", Help: "Settings resolutions by result."},
			[]string{"result"},
		),
		LastReload: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "last_reload_timestamp_seconds", Help: "Unix time of the last successful resolution."},
		),
		Findings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "lint_findings", Help: "Lint findings of the current settings by severity."},
			[]string{"severity"},
		),
		BackendUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "backend_up", Help: "1 when the last probe of the backend succeeded."},
			[]string{"backend"},
		),
		BackendRTT: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "backend_probe_duration_seconds", Help: "Duration of the last backend probe."},
			[]string{"backend"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPLatency,
		m.Reloads, m.LastReload, m.Findings,
		m.BackendUp, m.BackendRTT,
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, d time.Duration) {
	m.HTTPLatency.WithLabelValues(path, method).Observe(d.Seconds())
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// ObserveReload records a resolution attempt. Findings are only updated on
// success, a failed reload keeps the previous settings.
func (m *Metrics) ObserveReload(err error, findings []settings.Finding, at time.Time) {
	if err != nil {
		m.Reloads.WithLabelValues("error").Inc()
		return
	}
	m.Reloads.WithLabelValues("success").Inc()
	m.LastReload.Set(float64(at.Unix()))

	counts := map[settings.Severity]int{settings.SeverityWarning: 0, settings.SeverityInfo: 0}
	for _, f := range findings {
		counts[f.Severity]++
	}
	for sev, n := range counts {
		m.Findings.WithLabelValues(string(sev)).Set(float64(n))
	}
}

// ObserveProbe records a backend probe result.
func (m *Metrics) ObserveProbe(r probe.Result) {
	up := 0.0
	if r.Healthy {
		up = 1
	}
	m.BackendUp.WithLabelValues(r.Name).Set(up)
	m.BackendRTT.WithLabelValues(r.Name).Set(r.Latency.Seconds())
}
