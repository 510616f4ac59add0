// Package attribute resolves request attributes for filters and routing
// logic: headers, query parameters and form parameters, combined under a
// fixed precedence.
//
// Every operation takes the request and its reqctx.RequestContext
// explicitly. The parsed query multi-map is cached in the RequestContext
// on first use, so repeated lookups during one request parse only once.
//
// # Precedence
//
// Resolve consults sources strictly in order and returns the first hit:
//
//  1. the first value of the query parameter
//  2. the header
//  3. the form parameter
//
// # Example Usage
//
//	resolver := attribute.NewResolver(attribute.WithMetrics(metrics))
//
//	rc := reqctx.FromContext(r.Context())
//	req := httpreq.FromHTTP(r)
//	tenant, ok := resolver.Resolve(req, rc, "tenant")
//
// # Thread Safety
//
// A Resolver is safe for concurrent use. A RequestContext is not; it
// belongs to the goroutine serving its request.
package attribute
