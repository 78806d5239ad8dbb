package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics owns a private registry so several servers (tests) can coexist in
// one process.
type metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	reports            *prometheus.CounterVec
	emptyReports       prometheus.Counter
	suspiciousRequests prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "findash",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "findash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "findash",
			Name:      "report_builds_total",
			Help:      "Dashboard report builds by result.",
		}, []string{"result"}),
		emptyReports: f.NewCounter(prometheus.CounterOpts{
			Namespace: "findash",
			Name:      "empty_reports_total",
			Help:      "Reports whose filters matched no transactions.",
		}),
		suspiciousRequests: f.NewCounter(prometheus.CounterOpts{
			Namespace: "findash",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a known probing pattern.",
		}),
	}
}

func (m *metrics) observe(route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
