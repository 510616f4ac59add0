// Package clientip resolves the originating client address of a request.
//
// Resolution walks a fixed chain of proxy headers and falls back to the
// transport remote address. Header values are returned as sent: they are
// neither validated as IP addresses nor de-spoofed. Whether to trust the
// headers at all is a decision for the caller; TrustedProxies offers one
// such policy.
package clientip

import (
	"strings"
)

// Header names consulted, in order.
const (
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderProxyClientIP   = "Proxy-Client-IP"
	HeaderWLProxyClientIP = "WL-Proxy-Client-IP"
)

// SourceRemoteAddr is the source reported when no header supplied a value.
const SourceRemoteAddr = "remote_addr"

// unknownValue is the placeholder some proxies send when they do not know
// the client address.
const unknownValue = "unknown"

//nolint:gochecknoglobals // fixed resolution order
var proxyHeaders = []string{
	HeaderXForwardedFor,
	HeaderProxyClientIP,
	HeaderWLProxyClientIP,
}

// Request is the part of an inbound request the resolver reads.
type Request interface {
	Header(name string) (string, bool)
	RemoteAddr() string
}

// Headers returns the proxy headers consulted, in order.
func Headers() []string {
	out := make([]string, len(proxyHeaders))
	copy(out, proxyHeaders)
	return out
}

// Resolve returns the client address of req.
func Resolve(req Request) string {
	ip, _ := ResolveWithSource(req)
	return ip
}

// ResolveWithSource returns the client address of req together with the
// header name that supplied it, or SourceRemoteAddr.
func ResolveWithSource(req Request) (ip, source string) {
	for _, name := range proxyHeaders {
		if v, ok := req.Header(name); ok && usable(v) {
			return v, name
		}
	}
	return req.RemoteAddr(), SourceRemoteAddr
}

// usable reports whether a header value names a client.
func usable(v string) bool {
	return v != "" && !strings.EqualFold(v, unknownValue)
}
