package security

import (
	"encoding/binary"
	"fmt"
	"net"
)

// ipRange is an inclusive [start, end] IPv4 range in host byte order.
type ipRange struct {
	start uint32
	end   uint32
}

// IPAllowlist answers membership queries against a fixed set of CIDR
// ranges. Ranges are parsed once at construction; lookups are O(ranges).
type IPAllowlist struct {
	ranges []ipRange
}

// Loopback senders are always allowed so local testing and health probes
// work without widening the production ranges.
var loopback = []string{"127.0.0.1", "::1"}

// NewIPAllowlist parses the configured CIDR ranges. Only IPv4 ranges are
// supported; an IPv6 or malformed range is a configuration error.
func NewIPAllowlist(cidrs []string) (*IPAllowlist, error) {
	ranges := make([]ipRange, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parse CIDR %q: %w", cidr, err)
		}

		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			return nil, fmt.Errorf("CIDR %q is not IPv4", cidr)
		}

		ones, bits := ipNet.Mask.Size()
		if bits != 32 {
			return nil, fmt.Errorf("CIDR %q has a non-IPv4 mask", cidr)
		}

		start := binary.BigEndian.Uint32(ip4)
		var span uint32
		if ones < 32 {
			span = 1<<(32-ones) - 1
		}
		ranges = append(ranges, ipRange{start: start, end: start + span})
	}

	return &IPAllowlist{ranges: ranges}, nil
}

// IsAllowed reports whether ip falls inside any configured range or is a
// loopback address. Non-IPv4 input (including garbage) is rejected rather
// than treated as an error.
func (a *IPAllowlist) IsAllowed(ip string) bool {
	for _, lo := range loopback {
		if ip == lo {
			return true
		}
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() {
		return true
	}

	ip4 := parsed.To4()
	if ip4 == nil {
		return false
	}

	v := binary.BigEndian.Uint32(ip4)
	for _, r := range a.ranges {
		if v >= r.start && v <= r.end {
			return true
		}
	}
	return false
}
