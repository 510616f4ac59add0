package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values shared by the resolver components.
const (
	SourceQuery = "query"
	SourceForm  = "form"

	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultEncoded  = "encoded"
	ResultFallback = "fallback"
)

// Metrics holds all Prometheus metrics for the resolver and the HTTP
// server around it. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	queryParsesTotal  *prometheus.CounterVec
	decodeFallbacks   *prometheus.CounterVec
	paramCacheTotal   *prometheus.CounterVec
	uriOverridesTotal *prometheus.CounterVec
	clientIPSources   *prometheus.CounterVec
	gzipAccepted      *prometheus.CounterVec
	buildInfo         *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "reqattr"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "status"},
	)

	m.queryParsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "parses_total",
			Help:      "Total number of query or form strings parsed",
		},
		[]string{"source"},
	)

	m.decodeFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "decode_fallbacks_total",
			Help: "Total number of keys or values kept " +
				"undecoded because of malformed escapes",
		},
		[]string{"source"},
	)

	m.paramCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "param_cache_lookups_total",
			Help:      "Per-request query parameter cache lookups",
		},
		[]string{"result"},
	)

	m.uriOverridesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "uri_overrides_total",
			Help:      "Request URI overrides by outcome",
		},
		[]string{"result"},
	)

	m.clientIPSources = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "client_ip_source_total",
			Help:      "Client IP resolutions by the source that supplied the address",
		},
		[]string{"source"},
	)

	m.gzipAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "gzip_accepted_total",
			Help:      "Requests by whether they accept gzip responses",
		},
		[]string{"accepted"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit"},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.queryParsesTotal,
		m.decodeFallbacks,
		m.paramCacheTotal,
		m.uriOverridesTotal,
		m.clientIPSources,
		m.gzipAccepted,
		m.buildInfo,
	)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)

	return m
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, statusStr).Inc()
	m.requestDuration.WithLabelValues(method, statusStr).Observe(duration.Seconds())
}

// RecordParse records one parse of a query or form string and the number
// of decode fallbacks it produced.
func (m *Metrics) RecordParse(source string, fallbacks int) {
	if m == nil {
		return
	}
	m.queryParsesTotal.WithLabelValues(source).Inc()
	if fallbacks > 0 {
		m.decodeFallbacks.WithLabelValues(source).Add(float64(fallbacks))
	}
}

// RecordParamCache records a per-request cache lookup.
func (m *Metrics) RecordParamCache(result string) {
	if m == nil {
		return
	}
	m.paramCacheTotal.WithLabelValues(result).Inc()
}

// RecordURIOverride records the outcome of applying a URI override.
func (m *Metrics) RecordURIOverride(result string) {
	if m == nil {
		return
	}
	m.uriOverridesTotal.WithLabelValues(result).Inc()
}

// RecordClientIPSource records which source supplied the client IP.
func (m *Metrics) RecordClientIPSource(source string) {
	if m == nil {
		return
	}
	m.clientIPSources.WithLabelValues(source).Inc()
}

// RecordGzip records whether a request accepts gzip.
func (m *Metrics) RecordGzip(accepted bool) {
	if m == nil {
		return
	}
	m.gzipAccepted.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, commit).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
