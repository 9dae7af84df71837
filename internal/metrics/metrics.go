// Package metrics provides Prometheus metrics for the context engine and
// its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/resolver"
)

const namespace = "rac"

// Collector holds every rac metric. It implements engine.Observer.
type Collector struct {
	// Resolution metrics
	Resolutions        *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	DegradedRefs       *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	gatherer prometheus.Gatherer
}

var _ engine.Observer = (*Collector)(nil)

// New creates a collector registered with the default registry.
func New() *Collector {
	return newCollector(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a collector on its own registry, for tests and for
// processes that run more than one engine.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	return newCollector(reg, reg)
}

func newCollector(reg prometheus.Registerer, g prometheus.Gatherer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of context resolutions by layer and result code",
			},
			[]string{"layer", "code"},
		),
		ResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Context resolution duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"layer"},
		),
		DegradedRefs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unresolved_refs_total",
				Help:      "Total number of $ref pointers left unresolved",
			},
			[]string{"layer", "reason"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		gatherer: g,
	}
}

// ObserveResolution records one resolved query.
func (c *Collector) ObserveResolution(l layer.Layer, code string, elapsed time.Duration, report resolver.Report) {
	name := l.String()
	if name == "" {
		name = "unknown"
	}
	c.Resolutions.WithLabelValues(name, code).Inc()
	c.ResolutionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if n := len(report.Unresolved); n > 0 {
		c.DegradedRefs.WithLabelValues(name, "missing").Add(float64(n))
	}
	if report.DepthExceeded {
		c.DegradedRefs.WithLabelValues(name, "depth").Inc()
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// StatusClass reduces a status code to 2xx, 4xx and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}
