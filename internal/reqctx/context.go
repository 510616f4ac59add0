// Package reqctx provides the per-request scratch store shared by the
// filters handling one inbound request.
//
// A RequestContext lives exactly as long as the request it was created for.
// It is owned by the goroutine serving that request and has no locking.
package reqctx

import (
	"context"

	"github.com/greencloud/reqattr/internal/query"
)

// Well-known keys.
const (
	// KeyRequestQueryParams holds the parsed query multi-map (*query.Values).
	KeyRequestQueryParams = "requestQueryParams"

	// KeyRequestURI holds a request URI override (string) set by an
	// upstream filter.
	KeyRequestURI = "requestURI"

	// KeyClientIP holds the resolved client address and its source.
	KeyClientIP = "clientIP"
)

// RequestContext is a generic key/value store scoped to one request.
// A nil *RequestContext reads as empty and ignores writes.
type RequestContext struct {
	values map[string]any
}

// New creates an empty RequestContext.
func New() *RequestContext {
	return &RequestContext{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (rc *RequestContext) Get(key string) (any, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.values[key]
	return v, ok
}

// Set stores value under key.
func (rc *RequestContext) Set(key string, value any) {
	if rc == nil {
		return
	}
	if rc.values == nil {
		rc.values = make(map[string]any)
	}
	rc.values[key] = value
}

// Delete removes key.
func (rc *RequestContext) Delete(key string) {
	if rc == nil {
		return
	}
	delete(rc.values, key)
}

// QueryParams returns the cached query multi-map.
func (rc *RequestContext) QueryParams() (*query.Values, bool) {
	v, ok := rc.Get(KeyRequestQueryParams)
	if !ok {
		return nil, false
	}
	qp, ok := v.(*query.Values)
	return qp, ok && qp != nil
}

// SetQueryParams caches the query multi-map.
func (rc *RequestContext) SetQueryParams(qp *query.Values) {
	rc.Set(KeyRequestQueryParams, qp)
}

// RequestURI returns the request URI override.
func (rc *RequestContext) RequestURI() (string, bool) {
	v, ok := rc.Get(KeyRequestURI)
	if !ok {
		return "", false
	}
	uri, ok := v.(string)
	return uri, ok
}

// SetRequestURI stores a request URI override.
func (rc *RequestContext) SetRequestURI(uri string) {
	rc.Set(KeyRequestURI, uri)
}

type clientAddr struct {
	ip, source string
}

// ClientIP returns the client address resolved earlier in the request and
// the source that supplied it.
func (rc *RequestContext) ClientIP() (ip, source string, ok bool) {
	v, ok := rc.Get(KeyClientIP)
	if !ok {
		return "", "", false
	}
	addr, ok := v.(clientAddr)
	return addr.ip, addr.source, ok
}

// SetClientIP stores the resolved client address.
func (rc *RequestContext) SetClientIP(ip, source string) {
	rc.Set(KeyClientIP, clientAddr{ip: ip, source: source})
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the RequestContext carried by ctx, or nil.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(ctxKey{}).(*RequestContext); ok {
		return rc
	}
	return nil
}
