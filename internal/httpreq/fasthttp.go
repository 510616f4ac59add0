package httpreq

import (
	"strings"

	"github.com/valyala/fasthttp"
)

// FastHTTPRequest is a read-only view of a *fasthttp.RequestCtx.
type FastHTTPRequest struct {
	ctx *fasthttp.RequestCtx
}

// FromFastHTTP wraps ctx.
func FromFastHTTP(ctx *fasthttp.RequestCtx) FastHTTPRequest {
	return FastHTTPRequest{ctx: ctx}
}

// Header returns the value fasthttp reports for the named header.
func (f FastHTTPRequest) Header(name string) (string, bool) {
	v := f.ctx.Request.Header.Peek(name)
	if v == nil {
		return "", false
	}
	return string(v), true
}

// HeaderNames returns header names in the order they were received.
func (f FastHTTPRequest) HeaderNames() []string {
	var names []string
	seen := make(map[string]struct{})
	f.ctx.Request.Header.VisitAll(func(key, _ []byte) {
		name := string(key)
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}

// HeaderValues returns all raw values of the named header.
func (f FastHTTPRequest) HeaderValues(name string) []string {
	var vals []string
	f.ctx.Request.Header.VisitAll(func(key, value []byte) {
		if strings.EqualFold(string(key), name) {
			vals = append(vals, string(value))
		}
	})
	return vals
}

// FormValue returns the named parameter from the urlencoded body, falling
// back to the query string.
func (f FastHTTPRequest) FormValue(name string) (string, bool) {
	if args := f.ctx.PostArgs(); args.Has(name) {
		return string(args.Peek(name)), true
	}
	if args := f.ctx.QueryArgs(); args.Has(name) {
		return string(args.Peek(name)), true
	}
	return "", false
}

// RawQuery returns the undecoded query string.
func (f FastHTTPRequest) RawQuery() (string, bool) {
	qs := f.ctx.URI().QueryString()
	return string(qs), len(qs) > 0
}

// RemoteAddr returns the transport peer IP.
func (f FastHTTPRequest) RemoteAddr() string {
	return f.ctx.RemoteIP().String()
}

// RequestURI returns the request path as received, without the query.
func (f FastHTTPRequest) RequestURI() string {
	return string(f.ctx.URI().PathOriginal())
}
