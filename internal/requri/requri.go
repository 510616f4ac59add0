// Package requri resolves the effective URI of a request, honoring an
// override placed in the request context by an upstream filter.
package requri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/reqctx"
)

// DefaultCharset is used when no charset is configured.
const DefaultCharset = "UTF-8"

// Sentinel errors returned by Encode.
var (
	ErrUnsupportedCharset = errors.New("unsupported charset")
	ErrUnencodable        = errors.New("uri not encodable in charset")
)

// Request is the part of an inbound request the resolver reads.
type Request interface {
	RequestURI() string
}

// Resolver computes effective request URIs. It holds no per-request state
// and may be shared.
type Resolver struct {
	charset string
	logger  observability.Logger
	metrics *observability.Metrics
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithCharset sets the charset overrides are encoded in.
func WithCharset(charset string) Option {
	return func(r *Resolver) {
		if charset != "" {
			r.charset = charset
		}
	}
}

// WithLogger sets the sink for recovered encoding failures.
func WithLogger(logger observability.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// NewResolver creates a Resolver encoding overrides in DefaultCharset.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		charset: DefaultCharset,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Charset returns the charset overrides are encoded in.
func (r *Resolver) Charset() string {
	return r.charset
}

// EffectiveURI returns the URI reported by the transport, or the encoded
// override from rc when one is set. If the override cannot be encoded the
// transport URI is returned and the failure is logged as a warning.
func (r *Resolver) EffectiveURI(req Request, rc *reqctx.RequestContext) string {
	uri := req.RequestURI()

	override, ok := rc.RequestURI()
	if !ok {
		return uri
	}

	encoded, err := Encode(override, r.charset)
	if err != nil {
		r.logger.Warn("unable to encode uri path from context, falling back to uri from request",
			observability.Error(err),
			observability.String("override", override),
			observability.String("uri", uri),
			observability.String("charset", r.charset),
		)
		r.metrics.RecordURIOverride(observability.ResultFallback)
		return uri
	}

	r.metrics.RecordURIOverride(observability.ResultEncoded)
	return encoded
}

// Encode transcodes s to charset and form-encodes every '/'-separated
// segment, keeping the separators: "/a b" becomes "/a+b".
func Encode(s, charset string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: input is not valid UTF-8", ErrUnencodable)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCharset, charset)
	}

	transcoded, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnencodable, charset, err)
	}

	segments := strings.Split(transcoded, "/")
	for i, segment := range segments {
		segments[i] = url.QueryEscape(segment)
	}
	return strings.Join(segments, "/"), nil
}
