// Package realip extracts and normalizes the client ip of a request.
// The resolved value keys the login rate limiter, so resolution must be
// consistent everywhere ip-based policy is applied.
package realip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const forwardedForHeader = "X-Forwarded-For"

// Resolve returns the client ip of the request.
// With trustProxy the leftmost entry of X-Forwarded-For wins, otherwise
// the connection remote address is used. IPv4-mapped IPv6 addresses are
// unmapped ("::ffff:203.0.113.5" becomes "203.0.113.5") and IPv6 is
// canonicalized through a parse round-trip. Unparseable input is returned
// unchanged: better an odd rate limit key than a dropped one.
func Resolve(r *http.Request, trustProxy bool) string {
	if trustProxy {
		forwarded := strings.TrimSpace(r.Header.Get(forwardedForHeader))
		if forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return Normalize(strings.TrimSpace(first))
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests
		host = r.RemoteAddr
	}
	return Normalize(host)
}

// Normalize canonicalizes an ip literal, returning it unchanged if it
// does not parse
func Normalize(address string) string {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return address
	}

	return addr.Unmap().String()
}
