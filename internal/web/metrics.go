package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. Each Server owns its
// own registry so tests can build servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	datasetRecords  prometheus.Gauge
	queryDuration   prometheus.Histogram
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesview",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salesview",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesview",
			Name:      "uploads_total",
			Help:      "Dataset loads by source (csv, json) and result (ok, error).",
		}, []string{"source", "result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salesview",
			Name:      "upload_bytes_total",
			Help:      "Bytes received by successful CSV uploads.",
		}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salesview",
			Name:      "dataset_records",
			Help:      "Records in the active dataset.",
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salesview",
			Name:      "query_duration_seconds",
			Help:      "Time spent in the search/filter/sort/paginate pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.uploads,
		m.uploadBytes,
		m.datasetRecords,
		m.queryDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by chi route
// pattern, so /api/sales?page=2 and /api/sales?page=3 share a series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observeUpload(source string, err error, records int, size int64) {
	if err != nil {
		m.uploads.WithLabelValues(source, "error").Inc()
		return
	}
	m.uploads.WithLabelValues(source, "ok").Inc()
	m.datasetRecords.Set(float64(records))
	if size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

func (m *Metrics) observeQuery(d time.Duration) {
	m.queryDuration.Observe(d.Seconds())
}
