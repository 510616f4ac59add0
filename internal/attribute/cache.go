package attribute

import (
	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/query"
	"github.com/greencloud/reqattr/internal/reqctx"
)

// ParseFunc parses a raw query string.
type ParseFunc func(raw string) *query.Values

// ParamCache memoizes the parsed query multi-map in the request context,
// so a request's query string is parsed at most once. There is no
// invalidation: the raw query string cannot change during a request.
type ParamCache struct {
	parse   ParseFunc
	metrics *observability.Metrics
}

// NewParamCache creates a ParamCache using parse. A nil parse uses
// query.Parse.
func NewParamCache(parse ParseFunc, metrics *observability.Metrics) *ParamCache {
	if parse == nil {
		parse = func(raw string) *query.Values {
			values, fallbacks := query.ParseWithStats(raw)
			metrics.RecordParse(observability.SourceQuery, fallbacks)
			return values
		}
	}
	return &ParamCache{parse: parse, metrics: metrics}
}

// GetOrParse returns the multi-map cached in rc, parsing raw and caching
// the result on the first call. An absent raw query caches an empty
// multi-map. With a nil rc nothing is cached.
func (c *ParamCache) GetOrParse(rc *reqctx.RequestContext, raw string, present bool) *query.Values {
	if qp, ok := rc.QueryParams(); ok {
		c.metrics.RecordParamCache(observability.ResultHit)
		return qp
	}
	c.metrics.RecordParamCache(observability.ResultMiss)

	qp := query.NewValues()
	if present {
		qp = c.parse(raw)
	}
	rc.SetQueryParams(qp)
	return qp
}
