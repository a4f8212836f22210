// Package observability exposes the service's Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kidspeech"

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	recognitionsTotal   *prometheus.CounterVec
	recognitionDuration *prometheus.HistogramVec
	wordFallbacks       prometheus.Counter
	uploadBytes         *prometheus.HistogramVec
	sideEffectFailures  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		recognitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recognitions_total",
				Help:      "Pronunciation assessment calls by outcome.",
			},
			[]string{"outcome"},
		),
		recognitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recognition_duration_seconds",
				Help:      "Pronunciation assessment call duration in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"outcome"},
		),
		wordFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "word_fallback_total",
				Help:      "Evaluations whose word breakdown was synthesized from the reference text.",
			},
		),
		uploadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_bytes",
				Help:      "Size of accepted audio uploads.",
				Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 10),
			},
			[]string{"kind"},
		),
		sideEffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "side_effect_failures_total",
				Help:      "Failed best-effort side effects (archive, history, events).",
			},
			[]string{"effect"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.recognitionsTotal,
		m.recognitionDuration,
		m.wordFallbacks,
		m.uploadBytes,
		m.sideEffectFailures,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "UNKNOWN"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, statusLabel).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusLabel).Observe(duration.Seconds())
}

// ObserveRecognition matches assessment.Observer.
func (m *Metrics) ObserveRecognition(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.recognitionsTotal.WithLabelValues(outcome).Inc()
	m.recognitionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) IncWordFallback() {
	if m == nil {
		return
	}
	m.wordFallbacks.Inc()
}

func (m *Metrics) ObserveUpload(kind string, size int64) {
	if m == nil {
		return
	}
	m.uploadBytes.WithLabelValues(kind).Observe(float64(size))
}

func (m *Metrics) IncSideEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(effect).Inc()
}
