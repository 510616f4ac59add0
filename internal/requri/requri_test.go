package requri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/reqctx"
)

type fakeRequest string

func (f fakeRequest) RequestURI() string {
	return string(f)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		charset  string
		expected string
		wantErr  error
	}{
		{name: "space becomes plus", input: "/a b", charset: DefaultCharset, expected: "/a+b"},
		{name: "separators kept", input: "/v1/users/42", charset: DefaultCharset, expected: "/v1/users/42"},
		{name: "reserved characters escaped", input: "/a?b=c&d", charset: DefaultCharset, expected: "/a%3Fb%3Dc%26d"},
		{name: "utf-8 bytes escaped", input: "/café", charset: "utf-8", expected: "/caf%C3%A9"},
		{name: "single byte charset", input: "/café", charset: "ISO-8859-1", expected: "/caf%E9"},
		{name: "empty input", input: "", charset: DefaultCharset, expected: ""},
		{name: "unknown charset", input: "/a", charset: "no-such-charset", wantErr: ErrUnsupportedCharset},
		{name: "rune not representable", input: "/日本", charset: "ISO-8859-1", wantErr: ErrUnencodable},
		{name: "invalid utf-8 input", input: "/a\xffb", charset: DefaultCharset, wantErr: ErrUnencodable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Encode(tt.input, tt.charset)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolver_EffectiveURI(t *testing.T) {
	t.Parallel()

	r := NewResolver()

	t.Run("no override returns transport uri", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "/orig%20path", r.EffectiveURI(fakeRequest("/orig%20path"), reqctx.New()))
	})

	t.Run("nil context returns transport uri", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "/orig", r.EffectiveURI(fakeRequest("/orig"), nil))
	})

	t.Run("override is encoded", func(t *testing.T) {
		t.Parallel()

		rc := reqctx.New()
		rc.SetRequestURI("/a b")
		assert.Equal(t, "/a+b", r.EffectiveURI(fakeRequest("/orig"), rc))
	})

	t.Run("empty override is honored", func(t *testing.T) {
		t.Parallel()

		rc := reqctx.New()
		rc.SetRequestURI("")
		assert.Equal(t, "", r.EffectiveURI(fakeRequest("/orig"), rc))
	})

	t.Run("non-string override is ignored", func(t *testing.T) {
		t.Parallel()

		rc := reqctx.New()
		rc.Set(reqctx.KeyRequestURI, 7)
		assert.Equal(t, "/orig", r.EffectiveURI(fakeRequest("/orig"), rc))
	})
}

func TestResolver_EncodeFailureFallsBackAndLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := observability.NewMetrics("requri_test")
	r := NewResolver(
		WithCharset("ISO-8859-1"),
		WithLogger(observability.NewZapLogger(zap.New(core))),
		WithMetrics(metrics),
	)
	assert.Equal(t, "ISO-8859-1", r.Charset())

	rc := reqctx.New()
	rc.SetRequestURI("/日本")

	assert.Equal(t, "/orig", r.EffectiveURI(fakeRequest("/orig"), rc))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "unable to encode uri path from context, falling back to uri from request", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/日本", fields["override"])
	assert.Contains(t, fields["error"], "not encodable")
}

func TestWithCharset_EmptyKeepsDefault(t *testing.T) {
	t.Parallel()

	r := NewResolver(WithCharset(""))
	assert.Equal(t, DefaultCharset, r.Charset())
}
