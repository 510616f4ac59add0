package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	reqattr "github.com/greencloud/reqattr/internal/attribute"
	"github.com/greencloud/reqattr/internal/encoding"
	"github.com/greencloud/reqattr/internal/httpreq"
	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/reqctx"
)

// TracerName is the instrumentation scope of the request span.
const TracerName = "reqattr"

// Tracing returns a middleware that starts a server span per request, as a
// child of any propagated trace context, and annotates it with the resolved
// client address, gzip acceptance and effective URI. A URI override must be
// in the RequestContext before this middleware runs. Spans go to the global
// tracer provider, a no-op unless the embedding process installs one.
func Tracing(resolver *reqattr.Resolver) func(http.Handler) http.Handler {
	return TracingWithProvider(otel.GetTracerProvider(), otel.GetTextMapPropagator(), resolver)
}

// TracingWithProvider is Tracing with an explicit tracer provider and
// propagator.
func TracingWithProvider(
	tp trace.TracerProvider,
	propagator propagation.TextMapPropagator,
	resolver *reqattr.Resolver,
) func(http.Handler) http.Handler {
	tracer := tp.Tracer(TracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			r = r.WithContext(ctx)
			req := httpreq.FromHTTP(r)
			rc := reqctx.FromContext(ctx)
			clientIP, source := resolver.ClientIP(req, rc)

			span.SetAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("client.address", clientIP),
				attribute.String("reqattr.client_ip_source", source),
				attribute.Bool("reqattr.accepts_gzip", encoding.AcceptsGzip(req)),
				attribute.String("url.path", resolver.EffectiveURI(req, rc)),
			)
			if requestID := observability.RequestIDFromContext(ctx); requestID != "" {
				span.SetAttributes(attribute.String("reqattr.request_id", requestID))
			}

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			span.SetAttributes(attribute.Int("http.response.status_code", rw.status))
			if rw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.status))
			}
		})
	}
}
