package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phone_availability"

// Metrics holds the service's collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	checksTotal          *prometheus.CounterVec
	callStatusTotal      *prometheus.CounterVec
	providerErrorsTotal  *prometheus.CounterVec
	providerLatency      *prometheus.HistogramVec
	statusCallbacksTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration by method and route.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"method", "path"},
		),
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Phone checks by outcome.",
			},
			[]string{"outcome"},
		),
		callStatusTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_call_status_total",
				Help:      "Verification call statuses seen, by source (poll or callback).",
			},
			[]string{"source", "status"},
		),
		providerErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Failed telephony provider requests by operation.",
			},
			[]string{"op"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Telephony provider request duration by operation.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"op"},
		),
		statusCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_callbacks_total",
				Help:      "Accepted provider status callbacks by call status.",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.checksTotal,
		m.callStatusTotal,
		m.providerErrorsTotal,
		m.providerLatency,
		m.statusCallbacksTotal,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "/metrics" {
			return
		}
		m.recordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

func (m *Metrics) IncCheck(outcome string) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(label(outcome)).Inc()
}

func (m *Metrics) IncCallStatus(source, status string) {
	if m == nil {
		return
	}
	m.callStatusTotal.WithLabelValues(label(source), label(status)).Inc()
}

func (m *Metrics) IncProviderError(op string) {
	if m == nil {
		return
	}
	m.providerErrorsTotal.WithLabelValues(label(op)).Inc()
}

func (m *Metrics) ObserveProviderLatency(op string, d time.Duration) {
	if m == nil {
		return
	}
	seconds := d.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.providerLatency.WithLabelValues(label(op)).Observe(seconds)
}

func (m *Metrics) IncStatusCallback(status string) {
	if m == nil {
		return
	}
	m.statusCallbacksTotal.WithLabelValues(label(status)).Inc()
}

func (m *Metrics) recordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	if strings.TrimSpace(path) == "" {
		path = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(methodLabel, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, path).Observe(d.Seconds())
}

func label(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return v
}
