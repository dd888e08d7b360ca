// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is used by the router and services to record events.
type MetricsCollector interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	RecordContentMutation(entity, action string)
	RecordImageUpload(bytes int64)
	RecordEnquiry()
}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	authEvents      *prometheus.CounterVec
	contentMutation *prometheus.CounterVec
	imageUploads    prometheus.Counter
	imageBytes      prometheus.Counter
	enquiries       prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techlam_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techlam_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techlam_auth_events_total",
			Help: "Sign-up, sign-in, refresh and sign-out attempts by outcome.",
		}, []string{"event", "outcome"}),
		contentMutation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techlam_content_mutations_total",
			Help: "Successful content changes by entity and action.",
		}, []string{"entity", "action"}),
		imageUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techlam_image_uploads_total",
			Help: "Stored project images.",
		}),
		imageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techlam_image_upload_bytes_total",
			Help: "Bytes of stored project images.",
		}),
		enquiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techlam_enquiries_total",
			Help: "Contact form enquiries received.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.authEvents,
		c.contentMutation,
		c.imageUploads,
		c.imageBytes,
		c.enquiries,
	)

	return c
}

// RecordRequest records one served HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthEvent records an authentication attempt.
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordContentMutation records a successful create, update, delete or upsert.
func (c *Collector) RecordContentMutation(entity, action string) {
	c.contentMutation.WithLabelValues(entity, action).Inc()
}

// RecordImageUpload records a stored image of the given size.
func (c *Collector) RecordImageUpload(bytes int64) {
	c.imageUploads.Inc()
	c.imageBytes.Add(float64(bytes))
}

// RecordEnquiry records a stored enquiry.
func (c *Collector) RecordEnquiry() {
	c.enquiries.Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every event. Used where metrics are not wired, such as tests.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthEvent(string, string)                   {}
func (Nop) RecordContentMutation(string, string)             {}
func (Nop) RecordImageUpload(int64)                          {}
func (Nop) RecordEnquiry()                                   {}
