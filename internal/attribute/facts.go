package attribute

import (
	"github.com/greencloud/reqattr/internal/clientip"
	"github.com/greencloud/reqattr/internal/encoding"
	"github.com/greencloud/reqattr/internal/reqctx"
)

// ClientIPFunc resolves the client address of a request and names the
// source that supplied it.
type ClientIPFunc func(req clientip.Request) (ip, source string)

func defaultClientIP(req clientip.Request) (ip, source string) {
	return clientip.ResolveWithSource(req)
}

// ClientIP resolves the client address of req with the configured
// ClientIPFunc and names the source that supplied it. The result is stored
// in rc, so later calls for the same request reuse it.
func (r *Resolver) ClientIP(req clientip.Request, rc *reqctx.RequestContext) (ip, source string) {
	if ip, source, ok := rc.ClientIP(); ok {
		return ip, source
	}
	ip, source = r.clientIP(req)
	rc.SetClientIP(ip, source)
	return ip, source
}

// EffectiveURI returns the request URI, or the encoded override stored in
// rc, as the configured URI resolver computes it.
func (r *Resolver) EffectiveURI(req Request, rc *reqctx.RequestContext) string {
	return r.uri.EffectiveURI(req, rc)
}

// Facts is a snapshot of everything the resolvers derive from a request.
type Facts struct {
	ClientIP       string              `json:"client_ip"`
	ClientIPSource string              `json:"client_ip_source"`
	AcceptsGzip    bool                `json:"accepts_gzip"`
	EffectiveURI   string              `json:"effective_uri"`
	Query          map[string][]string `json:"query"`
	QueryFirst     map[string]string   `json:"query_first"`
	Headers        map[string]string   `json:"headers,omitempty"`
}

// Facts computes the Facts of req. Headers are included only when
// withHeaders is set.
func (r *Resolver) Facts(req Request, rc *reqctx.RequestContext, withHeaders bool) Facts {
	ip, source := r.ClientIP(req, rc)
	gzip := encoding.AcceptsGzip(req)
	qp := r.QueryParams(req, rc)

	r.metrics.RecordClientIPSource(source)
	r.metrics.RecordGzip(gzip)

	facts := Facts{
		ClientIP:       ip,
		ClientIPSource: source,
		AcceptsGzip:    gzip,
		EffectiveURI:   r.EffectiveURI(req, rc),
		Query:          qp.Map(),
		QueryFirst:     qp.Collapse(),
	}
	if withHeaders {
		facts.Headers = r.AllHeaders(req)
	}
	return facts
}
