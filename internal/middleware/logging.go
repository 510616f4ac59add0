package middleware

import (
	"net/http"
	"time"

	"github.com/greencloud/reqattr/internal/attribute"
	"github.com/greencloud/reqattr/internal/httpreq"
	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/reqctx"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush implements http.Flusher interface for streaming support.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging returns a middleware that writes one access log entry per request
// and records request metrics. The client address is resolved through
// resolver, so it honors the configured proxy trust, and is reused from the
// RequestContext when an outer middleware already resolved it.
func Logging(
	logger observability.Logger,
	resolver *attribute.Resolver,
	metrics *observability.Metrics,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			metrics.RecordRequest(r.Method, rw.status, duration)

			clientIP, source := resolver.ClientIP(httpreq.FromHTTP(r), reqctx.FromContext(r.Context()))

			//nolint:contextcheck // request context carries the request ID
			logger.WithContext(r.Context()).Info("http request",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", rw.status),
				observability.Int("size", rw.size),
				observability.Duration("duration", duration),
				observability.String("client_ip", clientIP),
				observability.String("client_ip_source", source),
				observability.String("user_agent", r.UserAgent()),
			)
		})
	}
}
