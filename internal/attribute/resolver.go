package attribute

import (
	"strings"

	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/query"
	"github.com/greencloud/reqattr/internal/reqctx"
	"github.com/greencloud/reqattr/internal/requri"
)

// headerValueSeparator joins repeated header values in AllHeaders.
const headerValueSeparator = ","

// Request is the read-only view of an inbound request the resolvers
// consume. Implementations live in package httpreq.
type Request interface {
	// Header returns the collection's representation of the named header.
	Header(name string) (string, bool)
	// HeaderNames returns every header name present on the request.
	HeaderNames() []string
	// HeaderValues returns every raw value of the named header.
	HeaderValues(name string) []string
	// FormValue returns the first value of the named form parameter.
	FormValue(name string) (string, bool)
	// RawQuery returns the undecoded query string and whether one was sent.
	RawQuery() (string, bool)
	// RemoteAddr returns the transport peer address.
	RemoteAddr() string
	// RequestURI returns the transport request URI.
	RequestURI() string
}

// Resolver extracts headers, query and form parameters from a request.
// It keeps no per-request state; all caching goes through the
// RequestContext passed to each call, so one Resolver serves every request.
type Resolver struct {
	cache    *ParamCache
	uri      *requri.Resolver
	clientIP ClientIPFunc
	metrics  *observability.Metrics
	logger   observability.Logger
	parse    ParseFunc
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithParseFunc replaces the query parser used by the cache.
func WithParseFunc(parse ParseFunc) Option {
	return func(r *Resolver) {
		r.parse = parse
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithURIResolver sets the resolver used for effective URIs in Facts.
func WithURIResolver(uri *requri.Resolver) Option {
	return func(r *Resolver) {
		r.uri = uri
	}
}

// WithClientIPFunc sets how Facts resolves the client address.
func WithClientIPFunc(fn ClientIPFunc) Option {
	return func(r *Resolver) {
		r.clientIP = fn
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.cache = NewParamCache(r.parse, r.metrics)
	if r.uri == nil {
		r.uri = requri.NewResolver(
			requri.WithLogger(r.logger),
			requri.WithMetrics(r.metrics),
		)
	}
	if r.clientIP == nil {
		r.clientIP = defaultClientIP
	}
	return r
}

// Header returns the named header as the request's header collection
// represents it. Repeated values are not re-joined here.
func (r *Resolver) Header(req Request, name string) (string, bool) {
	return req.Header(name)
}

// AllHeaders returns one entry per header name, joining repeated values
// with a comma. The map is a fresh snapshot owned by the caller.
func (r *Resolver) AllHeaders(req Request) map[string]string {
	names := req.HeaderNames()
	headers := make(map[string]string, len(names))
	for _, name := range names {
		vals := req.HeaderValues(name)
		if len(vals) == 0 {
			continue
		}
		headers[name] = strings.Join(vals, headerValueSeparator)
	}
	return headers
}

// AllHeadersMultiValued returns every header name mapped to a one-element
// list holding the single-lookup value from Header.
//
// Despite its shape the map never holds more than one value per name.
// Callers needing every value should use AllHeaders or HeaderValues.
func (r *Resolver) AllHeadersMultiValued(req Request) map[string][]string {
	names := req.HeaderNames()
	headers := make(map[string][]string, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		v, ok := req.Header(name)
		if !ok {
			continue
		}
		headers[name] = []string{v}
	}
	return headers
}

// FormValue returns the named form parameter.
func (r *Resolver) FormValue(req Request, name string) (string, bool) {
	return req.FormValue(name)
}

// QueryParams returns the decoded query multi-map, parsing it on the
// first call for rc and serving the cached value afterwards.
func (r *Resolver) QueryParams(req Request, rc *reqctx.RequestContext) *query.Values {
	raw, present := req.RawQuery()
	return r.cache.GetOrParse(rc, raw, present)
}

// QueryParamsFirstValue returns the first value of every query parameter.
// It never returns nil.
func (r *Resolver) QueryParamsFirstValue(req Request, rc *reqctx.RequestContext) map[string]string {
	return r.QueryParams(req, rc).Collapse()
}

// FormParamsFirstValue parses a raw urlencoded body and returns the first
// value of every parameter. The request's query cache is not involved.
// It never returns nil.
func (r *Resolver) FormParamsFirstValue(body string) map[string]string {
	if body == "" {
		return map[string]string{}
	}
	values, fallbacks := query.ParseWithStats(body)
	r.metrics.RecordParse(observability.SourceForm, fallbacks)
	return values.Collapse()
}

// Resolve looks name up in the query parameters, then the headers, then
// the form parameters, and returns the first value found.
func (r *Resolver) Resolve(req Request, rc *reqctx.RequestContext, name string) (string, bool) {
	if v, ok := r.QueryParams(req, rc).First(name); ok {
		return v, true
	}
	if v, ok := req.Header(name); ok {
		return v, true
	}
	if v, ok := req.FormValue(name); ok {
		return v, true
	}
	return "", false
}
