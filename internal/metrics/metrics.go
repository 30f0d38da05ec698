// Package metrics exposes Prometheus collectors for the assistant.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nyaymitra/internal/retrieval"
)

const namespace = "nyaymitra"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	retrievals        *prometheus.CounterVec
	retrievalDuration prometheus.Histogram
	webSearches       *prometheus.CounterVec
	llmRequests       *prometheus.CounterVec
	documents         *prometheus.CounterVec
	docsCleaned       prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and process collectors,
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Knowledge base retrievals by outcome.",
		}, []string{"outcome"}),
		retrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent segmenting and scoring the knowledge base.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		webSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "web_searches_total",
			Help:      "Web search lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Language model requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_generated_total",
			Help:      "Drafted legal documents by type.",
		}, []string{"type"}),
		docsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_cleaned_total",
			Help:      "Generated documents removed by the cleanup job.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.retrievals,
		m.retrievalDuration,
		m.webSearches,
		m.llmRequests,
		m.documents,
		m.docsCleaned,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRetrieval records one retrieval call.
func (m *Metrics) ObserveRetrieval(outcome retrieval.Type, _ int, elapsed time.Duration) {
	m.retrievals.WithLabelValues(string(outcome)).Inc()
	m.retrievalDuration.Observe(elapsed.Seconds())
}

// ObserveWebSearch records one provider lookup. outcome is "hit", "miss" or "error".
func (m *Metrics) ObserveWebSearch(provider, outcome string) {
	m.webSearches.WithLabelValues(provider, outcome).Inc()
}

// ObserveLLM records one language model request. mode is "chat" or "stream".
func (m *Metrics) ObserveLLM(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.llmRequests.WithLabelValues(mode, outcome).Inc()
}

// ObserveDocument records a drafted document.
func (m *Metrics) ObserveDocument(docType string) {
	m.documents.WithLabelValues(docType).Inc()
}

// ObserveCleanup records documents removed by a cleanup run.
func (m *Metrics) ObserveCleanup(removed int) {
	m.docsCleaned.Add(float64(removed))
}

// Middleware records request counts and latency labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
