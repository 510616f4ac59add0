package clientip

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	headers    http.Header
	remoteAddr string
}

func (f fakeRequest) Header(name string) (string, bool) {
	vals := f.headers.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (f fakeRequest) RemoteAddr() string {
	return f.remoteAddr
}

func newFakeRequest(remoteAddr string, kv ...string) fakeRequest {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return fakeRequest{headers: h, remoteAddr: remoteAddr}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		req            fakeRequest
		expectedIP     string
		expectedSource string
	}{
		{
			name:           "no headers uses remote address",
			req:            newFakeRequest("192.168.1.1"),
			expectedIP:     "192.168.1.1",
			expectedSource: SourceRemoteAddr,
		},
		{
			name:           "x-forwarded-for wins",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "203.0.113.7", HeaderProxyClientIP, "10.0.0.5"),
			expectedIP:     "203.0.113.7",
			expectedSource: HeaderXForwardedFor,
		},
		{
			name:           "x-forwarded-for chain returned as sent",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "203.0.113.7, 10.0.0.1"),
			expectedIP:     "203.0.113.7, 10.0.0.1",
			expectedSource: HeaderXForwardedFor,
		},
		{
			name:           "unknown x-forwarded-for falls through to proxy-client-ip",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "unknown", HeaderProxyClientIP, "10.0.0.5"),
			expectedIP:     "10.0.0.5",
			expectedSource: HeaderProxyClientIP,
		},
		{
			name:           "unknown is case-insensitive",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "UNKNOWN", HeaderProxyClientIP, "Unknown", HeaderWLProxyClientIP, "10.0.0.9"),
			expectedIP:     "10.0.0.9",
			expectedSource: HeaderWLProxyClientIP,
		},
		{
			name:           "empty header falls through",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "", HeaderWLProxyClientIP, "10.0.0.9"),
			expectedIP:     "10.0.0.9",
			expectedSource: HeaderWLProxyClientIP,
		},
		{
			name:           "all headers unknown uses remote address",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "unknown", HeaderProxyClientIP, "unknown", HeaderWLProxyClientIP, "unknown"),
			expectedIP:     "192.168.1.1",
			expectedSource: SourceRemoteAddr,
		},
		{
			name:           "header value is not validated",
			req:            newFakeRequest("192.168.1.1", HeaderProxyClientIP, "not-an-ip"),
			expectedIP:     "not-an-ip",
			expectedSource: HeaderProxyClientIP,
		},
		{
			name:           "header lookup is case-insensitive",
			req:            newFakeRequest("192.168.1.1", "x-forwarded-for", "198.51.100.2"),
			expectedIP:     "198.51.100.2",
			expectedSource: HeaderXForwardedFor,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ip, source := ResolveWithSource(tt.req)
			assert.Equal(t, tt.expectedIP, ip)
			assert.Equal(t, tt.expectedSource, source)
			assert.Equal(t, tt.expectedIP, Resolve(tt.req))
		})
	}
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	headers := Headers()
	assert.Equal(t, []string{HeaderXForwardedFor, HeaderProxyClientIP, HeaderWLProxyClientIP}, headers)

	headers[0] = "changed"
	assert.Equal(t, HeaderXForwardedFor, Headers()[0])
}

func TestNewTrustedProxies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		proxies  []string
		expected int
	}{
		{name: "nil proxies", proxies: nil, expected: 0},
		{name: "single CIDR", proxies: []string{"10.0.0.0/8"}, expected: 1},
		{name: "single IP without CIDR notation", proxies: []string{"192.168.1.1"}, expected: 1},
		{name: "invalid entry is skipped", proxies: []string{"invalid", "10.0.0.0/8"}, expected: 1},
		{name: "IPv6 CIDR", proxies: []string{"fd00::/8"}, expected: 1},
		{name: "IPv6 single address", proxies: []string{"::1"}, expected: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tp := NewTrustedProxies(tt.proxies)
			require.NotNil(t, tp)
			assert.Equal(t, tt.expected, tp.Len())
		})
	}
}

func TestTrustedProxies_Resolve(t *testing.T) {
	t.Parallel()

	tp := NewTrustedProxies([]string{"10.0.0.0/8", "::1"})

	tests := []struct {
		name           string
		req            fakeRequest
		expectedIP     string
		expectedSource string
	}{
		{
			name:           "trusted peer uses header chain",
			req:            newFakeRequest("10.1.2.3", HeaderXForwardedFor, "203.0.113.7"),
			expectedIP:     "203.0.113.7",
			expectedSource: HeaderXForwardedFor,
		},
		{
			name:           "trusted IPv6 peer uses header chain",
			req:            newFakeRequest("::1", HeaderProxyClientIP, "203.0.113.8"),
			expectedIP:     "203.0.113.8",
			expectedSource: HeaderProxyClientIP,
		},
		{
			name:           "untrusted peer ignores headers",
			req:            newFakeRequest("192.168.1.1", HeaderXForwardedFor, "203.0.113.7"),
			expectedIP:     "192.168.1.1",
			expectedSource: SourceRemoteAddr,
		},
		{
			name:           "unparseable peer is untrusted",
			req:            newFakeRequest("pipe", HeaderXForwardedFor, "203.0.113.7"),
			expectedIP:     "pipe",
			expectedSource: SourceRemoteAddr,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ip, source := tp.ResolveWithSource(tt.req)
			assert.Equal(t, tt.expectedIP, ip)
			assert.Equal(t, tt.expectedSource, source)
			assert.Equal(t, tt.expectedIP, tp.Resolve(tt.req))
		})
	}
}

func TestTrustedProxies_EmptyTrustsEveryPeer(t *testing.T) {
	t.Parallel()

	req := newFakeRequest("192.168.1.1", HeaderXForwardedFor, "203.0.113.7")

	assert.Equal(t, "203.0.113.7", NewTrustedProxies(nil).Resolve(req))

	var nilProxies *TrustedProxies
	assert.Equal(t, "203.0.113.7", nilProxies.Resolve(req))
}
