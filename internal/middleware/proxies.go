package middleware

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrInvalidProxy is returned for a trusted proxy entry that is neither an IP
// nor a CIDR range.
var ErrInvalidProxy = errors.New("invalid trusted proxy")

// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP headers are
// believed. The zero value trusts nobody.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies parses a comma-separated list of IPs and CIDR ranges,
// e.g. "10.0.0.0/8, 192.168.1.1". A single IP covers only itself.
func ParseTrustedProxies(list string) (TrustedProxies, error) {
	var proxies TrustedProxies

	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			proxies = append(proxies, prefix.Masked())

			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
		}

		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return proxies, nil
}

// Trusts reports whether ip lies in one of the trusted ranges.
func (t TrustedProxies) Trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	for _, prefix := range t {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// forwardedClient walks an X-Forwarded-For chain from the nearest hop and
// returns the first address not run by a trusted proxy. Entries left of it
// were written by the client and are ignored.
func (t TrustedProxies) forwardedClient(xff string) (string, bool) {
	hops := strings.Split(xff, ",")
	client := ""

	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if _, err := netip.ParseAddr(hop); err != nil {
			break
		}

		client = hop
		if !t.Trusts(hop) {
			break
		}
	}

	return client, client != ""
}
