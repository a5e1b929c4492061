package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	BackendOutcomes *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
	FormSubmissions *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bambite_backend_requests_total",
		Help: "Backend calls by endpoint and classified outcome.",
	}, []string{"method", "endpoint", "outcome"})
	backendLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bambite_backend_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
	forms := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bambite_form_submissions_total",
		Help: "Form submissions by form and outcome.",
	}, []string{"form", "outcome"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bambite_gateway_requests_total",
	}, []string{"method", "route", "status"})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bambite_gateway_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	r.MustRegister(outcomes, backendLatency, forms, httpRequests, httpLatency,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Registry{
		reg:             r,
		BackendOutcomes: outcomes,
		BackendLatency:  backendLatency,
		FormSubmissions: forms,
		HTTPRequests:    httpRequests,
		HTTPLatency:     httpLatency,
	}
}

func (r *Registry) RecordBackendOutcome(method, endpoint, outcome string) {
	r.BackendOutcomes.WithLabelValues(method, NormalizeEndpoint(endpoint), outcome).Inc()
}

func (r *Registry) ObserveBackendLatency(method, endpoint string, d time.Duration) {
	r.BackendLatency.WithLabelValues(method, NormalizeEndpoint(endpoint)).Observe(d.Seconds())
}

func (r *Registry) RecordFormSubmission(form, outcome string) {
	r.FormSubmissions.WithLabelValues(form, outcome).Inc()
}

// ObserveRequest records one gateway request. route is the matched route
// pattern, never the raw path.
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

var staticSegments = map[string]bool{"active": true}

// NormalizeEndpoint keeps label cardinality bounded: "/products/abc" becomes
// "/products/{id}" and query strings are dropped.
func NormalizeEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	segments := strings.Split(strings.Trim(endpoint, "/"), "/")
	for i := 1; i < len(segments); i++ {
		if !staticSegments[segments[i]] {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}
