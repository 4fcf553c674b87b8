package auth

import (
	"net"
	"net/netip"
	"strings"
)

// Tier classifies where a request comes from, independent of credentials.
// Ordered: a configured maximum tier admits everything at or below it.
type Tier int

const (
	// TierPC: loopback, the host itself.
	TierPC Tier = iota
	// TierLAN: private, link-local or ULA ranges.
	TierLAN
	// TierWAN: everything else.
	TierWAN
)

func (t Tier) String() string {
	switch t {
	case TierPC:
		return "pc"
	case TierLAN:
		return "lan"
	default:
		return "wan"
	}
}

// ParseTier maps a config string to a Tier. Unknown values fall back to lan,
// the conservative default for a host-local console.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc", "loopback", "localhost":
		return TierPC
	case "wan":
		return TierWAN
	default:
		return TierLAN
	}
}

// ClassifyOrigin buckets a remote address ("host:port" or bare host) into a
// tier. Anything unparsable counts as WAN: fail closed.
func ClassifyOrigin(remoteAddr string) Tier {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return TierWAN
	}
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback():
		return TierPC
	case addr.IsPrivate(), addr.IsLinkLocalUnicast():
		return TierLAN
	}
	return TierWAN
}
