package clientip

import (
	"net"
)

// TrustedProxies applies the header chain only to requests whose transport
// peer is a known proxy. Requests from any other peer resolve to their
// remote address.
type TrustedProxies struct {
	trustedCIDRs []*net.IPNet
}

// NewTrustedProxies creates a TrustedProxies from CIDRs or single IP
// addresses. Invalid entries are skipped. With no valid entries every peer
// is trusted, which matches the plain Resolve behavior.
func NewTrustedProxies(proxies []string) *TrustedProxies {
	cidrs := make([]*net.IPNet, 0, len(proxies))
	for _, proxy := range proxies {
		_, cidr, err := net.ParseCIDR(proxy)
		if err != nil {
			ip := net.ParseIP(proxy)
			if ip == nil {
				continue
			}
			cidr = singleIPToCIDR(ip)
		}
		cidrs = append(cidrs, cidr)
	}
	return &TrustedProxies{trustedCIDRs: cidrs}
}

// singleIPToCIDR converts a single IP address to a /32 or /128 CIDR.
func singleIPToCIDR(ip net.IP) *net.IPNet {
	bits := 32
	if ip.To4() == nil {
		bits = 128 //nolint:mnd // IPv6 prefix length
	}
	return &net.IPNet{
		IP:   ip,
		Mask: net.CIDRMask(bits, bits),
	}
}

// Len returns the number of trusted networks.
func (t *TrustedProxies) Len() int {
	if t == nil {
		return 0
	}
	return len(t.trustedCIDRs)
}

// Resolve returns the client address of req.
func (t *TrustedProxies) Resolve(req Request) string {
	ip, _ := t.ResolveWithSource(req)
	return ip
}

// ResolveWithSource is Resolve that also reports the source.
func (t *TrustedProxies) ResolveWithSource(req Request) (ip, source string) {
	if t.Len() == 0 || t.isTrusted(req.RemoteAddr()) {
		return ResolveWithSource(req)
	}
	return req.RemoteAddr(), SourceRemoteAddr
}

// isTrusted checks if the given IP string is within any trusted CIDR.
func (t *TrustedProxies) isTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, cidr := range t.trustedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
