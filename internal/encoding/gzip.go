// Package encoding detects response encodings a client accepts.
package encoding

import "strings"

// HeaderAcceptEncoding is the Accept-Encoding header name.
const HeaderAcceptEncoding = "Accept-Encoding"

// gzipToken is matched as a plain substring of the header value.
const gzipToken = "gzip"

// HeaderReader looks up a single request header.
type HeaderReader interface {
	Header(name string) (string, bool)
}

// AcceptsGzip reports whether req carries an Accept-Encoding header that
// mentions gzip.
//
// The check is a case-sensitive substring match on the raw header value.
// It does not split the encoding list or honor q-values, so "gzip;q=0"
// counts as accepting gzip.
func AcceptsGzip(req HeaderReader) bool {
	v, ok := req.Header(HeaderAcceptEncoding)
	return ok && IsGzip(v)
}

// IsGzip reports whether an Accept-Encoding value mentions gzip.
func IsGzip(acceptEncoding string) bool {
	return strings.Contains(acceptEncoding, gzipToken)
}
