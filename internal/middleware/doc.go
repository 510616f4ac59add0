// Package middleware provides HTTP middleware for the request attribute
// service.
//
// # Middleware Components
//
//   - RequestID: request identifier injection
//   - RequestContext: one reqctx.RequestContext per request
//   - Logging: structured access log with the resolved client address
//   - Recovery: panic recovery with stack trace logging
//   - BodyLimit: request body size limiting
//   - Tracing: span annotated with resolver facts
//
// # Usage
//
// Middleware functions follow the standard Go pattern and compose with
// Chain, outermost first:
//
//	handler := middleware.Chain(
//	    middleware.Recovery(logger),
//	    middleware.RequestID(),
//	    middleware.RequestContext(),
//	    middleware.Logging(logger, resolver, metrics),
//	)(yourHandler)
//
// GinRequestContext installs the request context from inside a gin engine.
package middleware

import "net/http"

// Chain composes middlewares so the first one is outermost.
func Chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
