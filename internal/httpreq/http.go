// Package httpreq adapts server framework requests to the read-only view
// the attribute resolvers consume.
//
// Adapters never parse request bodies. Form lookups see whatever the
// framework has already parsed.
package httpreq

import (
	"net"
	"net/http"
	"sort"
)

const headerHost = "Host"

// HTTPRequest is a read-only view of a *http.Request.
type HTTPRequest struct {
	r *http.Request
}

// FromHTTP wraps r.
func FromHTTP(r *http.Request) HTTPRequest {
	return HTTPRequest{r: r}
}

// Header returns the first value of the named header. The Host header,
// which net/http keeps outside r.Header, is reported from r.Host.
func (h HTTPRequest) Header(name string) (string, bool) {
	vals := h.HeaderValues(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// HeaderNames returns the canonical names of all headers, sorted.
func (h HTTPRequest) HeaderNames() []string {
	names := make([]string, 0, len(h.r.Header)+1)
	for name := range h.r.Header {
		names = append(names, name)
	}
	if h.r.Host != "" && len(h.r.Header.Values(headerHost)) == 0 {
		names = append(names, headerHost)
	}
	sort.Strings(names)
	return names
}

// HeaderValues returns all raw values of the named header.
func (h HTTPRequest) HeaderValues(name string) []string {
	vals := h.r.Header.Values(name)
	if len(vals) == 0 && http.CanonicalHeaderKey(name) == headerHost && h.r.Host != "" {
		return []string{h.r.Host}
	}
	return vals
}

// FormValue returns the first value of the named form parameter. When the
// form has been parsed it covers body and query parameters; otherwise only
// the query string is consulted.
func (h HTTPRequest) FormValue(name string) (string, bool) {
	form := h.r.Form
	if form == nil {
		form = h.r.URL.Query()
	}
	vals, ok := form[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// RawQuery returns the undecoded query string. It is absent when the
// request URI carried no '?'.
func (h HTTPRequest) RawQuery() (string, bool) {
	return h.r.URL.RawQuery, h.r.URL.RawQuery != "" || h.r.URL.ForceQuery
}

// RemoteAddr returns the transport peer address without its port.
func (h HTTPRequest) RemoteAddr() string {
	return stripPort(h.r.RemoteAddr)
}

// RequestURI returns the escaped request path, without the query.
func (h HTTPRequest) RequestURI() string {
	return h.r.URL.EscapedPath()
}

// stripPort removes the port from an address string.
// Handles both IPv4 ("192.168.1.1:8080") and IPv6 ("[::1]:8080") formats.
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
