package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/prism-cli/internal/ai"
)

// Metrics owns a private registry so tests can build many servers.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	llmAttempts *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	datasets    *prometheus.CounterVec
	insights    *prometheus.CounterVec
}

// NewMetrics registers the collectors. sessions reports the live session
// count at scrape time.
func NewMetrics(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prism",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		llmAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "llm_attempts_total",
			Help:      "LLM backend calls by backend, model and outcome.",
		}, []string{"backend", "model", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prism",
			Name:      "llm_attempt_duration_seconds",
			Help:      "LLM backend call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"backend", "model"}),
		datasets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "datasets_loaded_total",
			Help:      "Uploaded datasets by format and whether they were sampled.",
		}, []string{"format", "sampled"}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "insights_total",
			Help:      "Generated insights by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.llmAttempts, m.llmLatency, m.datasets, m.insights,
	)
	if sessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "prism",
			Name:      "sessions_active",
			Help:      "Datasets currently held in memory.",
		}, func() float64 { return float64(sessions()) }))
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveLLM is plugged into ai.FallbackOptions.Observe.
func (m *Metrics) ObserveLLM(a ai.Attempt) {
	outcome := a.Outcome
	if outcome == "" {
		outcome = ai.Outcome(a.Err)
	}
	m.llmAttempts.WithLabelValues(a.Backend, a.Model, outcome).Inc()
	m.llmLatency.WithLabelValues(a.Backend, a.Model).Observe(a.Elapsed.Seconds())
}

func (m *Metrics) datasetLoaded(format string, sampled bool) {
	m.datasets.WithLabelValues(format, strconv.FormatBool(sampled)).Inc()
}

func (m *Metrics) insight(kind string, busy, cached bool) {
	result := "answered"
	switch {
	case busy:
		result = "busy"
	case cached:
		result = "cached"
	}
	m.insights.WithLabelValues(kind, result).Inc()
}

// instrument records request counts and latency under the chi route
// pattern, which keeps session IDs out of the label set.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
