package analyzer

import (
	"context"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

var blockedHostnames = map[string]bool{
	"localhost": true,
	"0.0.0.0":   true,
	"[::]":      true,
	"::":        true,
}

var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// IsPrivateAddr reports whether ip is loopback, private or link-local.
func IsPrivateAddr(ip net.IP) bool {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	addr = addr.Unmap()
	for _, p := range privatePrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ValidateURL checks rawURL before any request is made. It returns the parsed URL.
//
// Only a blocked address short-circuits; lookup failures are left for the fetch
// to report. The check is a single lookup, so DNS rebinding between this call and
// the fetch is not prevented.
func ValidateURL(ctx context.Context, resolver Resolver, rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, newError(KindInvalidScheme, msgInvalidScheme, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, newError(KindInvalidScheme, msgInvalidScheme, nil)
	}

	hostname := strings.ToLower(u.Hostname())
	if blockedHostnames[hostname] {
		return nil, newError(KindBlockedHost, msgBlockedHostname, nil)
	}

	if resolver == nil {
		return u, nil
	}
	addrs, err := resolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return u, nil
	}
	for _, a := range addrs {
		if IsPrivateAddr(a.IP) {
			return nil, newError(KindBlockedHost, msgBlockedAddress, nil)
		}
	}
	return u, nil
}
