package middleware

import (
	"net"
	"net/http"
	"strings"
)

// Forwarding-related header names.
const (
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXRequestID    = "X-Request-ID"
)

// ClientIPExtractor extracts the client IP from requests, preferring
// forwarded-address headers over the raw connection address.
//
// Without trusted proxies configured, the leftmost X-Forwarded-For
// entry (the originating client) is used when the header is present.
// With trusted proxies configured, the chain is walked right-to-left
// and the first address outside the trusted CIDRs wins, which prevents
// clients from spoofing their address past a known proxy tier.
type ClientIPExtractor struct {
	trustedCIDRs []*net.IPNet
}

// NewClientIPExtractor creates a new ClientIPExtractor with the given
// trusted proxy CIDRs. Invalid CIDRs are silently skipped; a bare IP is
// treated as a host-sized block.
func NewClientIPExtractor(trustedProxies []string) *ClientIPExtractor {
	cidrs := make([]*net.IPNet, 0, len(trustedProxies))
	for _, proxy := range trustedProxies {
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
	return &ClientIPExtractor{trustedCIDRs: cidrs}
}

// singleIPToCIDR converts a single IP address to a /32 or /128 CIDR.
func singleIPToCIDR(ip net.IP) *net.IPNet {
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}
	return &net.IPNet{
		IP:   ip,
		Mask: net.CIDRMask(bits, bits),
	}
}

// Extract returns the client IP for the request.
func (e *ClientIPExtractor) Extract(r *http.Request) string {
	remoteIP := stripPort(r.RemoteAddr)

	xff := r.Header.Get(HeaderXForwardedFor)
	if xff == "" {
		if realIP := strings.TrimSpace(r.Header.Get(HeaderXRealIP)); realIP != "" {
			return realIP
		}
		return remoteIP
	}

	ips := strings.Split(xff, ",")

	if len(e.trustedCIDRs) == 0 {
		for _, ip := range ips {
			if ip = strings.TrimSpace(ip); ip != "" {
				return ip
			}
		}
		return remoteIP
	}

	// Walk right-to-left to find the first non-trusted IP.
	for i := len(ips) - 1; i >= 0; i-- {
		ip := strings.TrimSpace(ips[i])
		if ip == "" {
			continue
		}
		if !e.isTrusted(ip) {
			return ip
		}
	}

	// All IPs in the chain are trusted.
	return remoteIP
}

// isTrusted checks if the given IP string is within any trusted CIDR.
func (e *ClientIPExtractor) isTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, cidr := range e.trustedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// stripPort removes the port from an address string. Handles both
// "192.168.1.1:8080" and "[::1]:8080" formats.
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
