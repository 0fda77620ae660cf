package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures metric collection.
type Config struct {
	Enabled     bool
	ServiceName string
	Environment string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	uploadsTotal       *prometheus.CounterVec
	uploadBlobFailures *prometheus.CounterVec
	imagesServed       *prometheus.CounterVec
	authEvents         *prometheus.CounterVec
	rateLimitDecisions *prometheus.CounterVec
}

// HTTPMetrics exposes request-level instruments.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the application instruments on the default registry.
func New(cfg Config) (*Metrics, error) {
	m := &Metrics{
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelbin_uploads_total",
			Help: "Image uploads accepted, by content type.",
		}, []string{"content_type"}),
		uploadBlobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelbin_upload_blob_failures_total",
			Help: "Blob writes that failed during ingestion, by variant.",
		}, []string{"variant"}),
		imagesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelbin_images_served_total",
			Help: "Image reads served, by variant.",
		}, []string{"variant"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelbin_auth_events_total",
			Help: "Authentication events, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		rateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelbin_rate_limit_decisions_total",
			Help: "Rate limiter decisions, by endpoint and decision.",
		}, []string{"endpoint", "decision"}),
	}

	collectors := []prometheus.Collector{
		m.uploadsTotal,
		m.uploadBlobFailures,
		m.imagesServed,
		m.authEvents,
		m.rateLimitDecisions,
	}
	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

// NewHTTPMetrics registers the request instruments on the default registry.
func NewHTTPMetrics(cfg Config) (*HTTPMetrics, error) {
	h := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelbin_http_requests_total",
			Help: "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelbin_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, collector := range []prometheus.Collector{h.requestsTotal, h.requestDuration} {
		if err := prometheus.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return h, nil
}

// RecordUpload increments accepted upload counts.
func (m *Metrics) RecordUpload(contentType string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(strings.TrimSpace(contentType)).Inc()
}

// RecordUploadBlobFailure increments failed blob write counts.
func (m *Metrics) RecordUploadBlobFailure(variant string) {
	if m == nil {
		return
	}
	m.uploadBlobFailures.WithLabelValues(strings.TrimSpace(variant)).Inc()
}

// RecordImageServed increments served image counts.
func (m *Metrics) RecordImageServed(variant string) {
	if m == nil {
		return
	}
	m.imagesServed.WithLabelValues(strings.TrimSpace(variant)).Inc()
}

// RecordAuthEvent increments authentication event counts.
func (m *Metrics) RecordAuthEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(strings.TrimSpace(kind), strings.TrimSpace(outcome)).Inc()
}

// RecordRateLimitDecision increments rate limiter decision counts.
func (m *Metrics) RecordRateLimitDecision(endpoint, decision string) {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues(strings.TrimSpace(endpoint), strings.TrimSpace(decision)).Inc()
}

// GinMiddleware records request counts and latency per route.
func (h *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		h.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		h.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
