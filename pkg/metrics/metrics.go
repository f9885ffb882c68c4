// Package metrics exposes Prometheus collectors for submissions and outbound relays.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "immerseforge"

// Metrics holds the site backend collectors
type Metrics struct {
	registry *prometheus.Registry

	Submissions     *prometheus.CounterVec
	NotionRequests  *prometheus.CounterVec
	UploadBytes     prometheus.Histogram
	RequestDuration *prometheus.HistogramVec
	ContentReloads  *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Form submissions by form and relay outcome",
		}, []string{"form", "outcome"}),
		NotionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notion_requests_total",
			Help:      "Notion API calls by operation and result",
		}, []string{"operation", "result"}),
		UploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of files attached to applications",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ContentReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_reloads_total",
			Help:      "Website content reloads by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.Submissions,
		m.NotionRequests,
		m.UploadBytes,
		m.RequestDuration,
		m.ContentReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveNotion records a finished Notion call.
func (m *Metrics) ObserveNotion(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotionRequests.WithLabelValues(operation, result).Inc()
}

// ObserveSubmission records one submission outcome.
func (m *Metrics) ObserveSubmission(form, outcome string) {
	m.Submissions.WithLabelValues(form, outcome).Inc()
}

// ObserveUpload records the size of one attached file.
func (m *Metrics) ObserveUpload(bytes int) {
	m.UploadBytes.Observe(float64(bytes))
}

// ObserveContentReload records a content load attempt.
func (m *Metrics) ObserveContentReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ContentReloads.WithLabelValues(result).Inc()
}

// GinMiddleware times every request by its route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
