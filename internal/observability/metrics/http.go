package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ragRequestsTotal     *prometheus.CounterVec
	ragRetrievalHitTotal *prometheus.CounterVec
	ragNoContextTotal    *prometheus.CounterVec
	ragContextChunks     *prometheus.HistogramVec
	ragDuration          *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ccr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ccr",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccr",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful RAG requests.",
		},
		[]string{"service"},
	)
	ragRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccr",
			Subsystem: "rag",
			Name:      "retrieval_hit_total",
			Help:      "Total RAG requests with at least one context chunk after reranking.",
		},
		[]string{"service"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccr",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total RAG requests answered without retrieved context.",
		},
		[]string{"service"},
	)
	ragContextChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ccr",
			Subsystem: "rag",
			Name:      "context_chunks",
			Help:      "Distribution of context chunks per RAG request after the adaptive cutoff.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ccr",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "RAG execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ragRequestsTotal,
		ragRetrievalHitTotal,
		ragNoContextTotal,
		ragContextChunks,
		ragDuration,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		ragRequestsTotal:     ragRequestsTotal,
		ragRetrievalHitTotal: ragRetrievalHitTotal,
		ragNoContextTotal:    ragNoContextTotal,
		ragContextChunks:     ragContextChunks,
		ragDuration:          ragDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRAGObservation(service string, sourceCount int, duration time.Duration) {
	m.ragRequestsTotal.WithLabelValues(service).Inc()
	m.ragContextChunks.WithLabelValues(service).Observe(float64(sourceCount))
	m.ragDuration.WithLabelValues(service).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.ragRetrievalHitTotal.WithLabelValues(service).Inc()
		return
	}
	m.ragNoContextTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
