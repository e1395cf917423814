// Package cidr implements the IPv4 address arithmetic used by routers: strict
// parsing of dotted-quad addresses and prefixes, network and broadcast
// derivation, and validation of assignable host addresses.
package cidr

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	gocidr "github.com/apparentlymart/go-cidr/cidr"
	"go4.org/netipx"
)

var (
	ErrMalformed    = errors.New("malformed IPv4 address")
	ErrPrefixLength = errors.New("prefix length must be between 0 and 32")
	ErrNotHost      = errors.New("not a host address")
)

// ParseAddr parses a dotted-quad IPv4 address. Each octet is a decimal
// number without leading zeros, so "192.168.001.5" is malformed, as is
// anything with surrounding whitespace. Unlike netip.ParseAddr, it rejects
// IPv6 and IPv4-mapped forms.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	return addr, nil
}

// ParsePrefix parses "a.b.c.d/len". Host bits are preserved, so the result
// can describe an interface address as well as a network. len follows the
// same rules as an octet: decimal digits only, with no sign and no leading
// zeros.
func ParsePrefix(s string) (netip.Prefix, error) {
	a, l, ok := strings.Cut(s, "/")
	if !ok {
		return netip.Prefix{}, fmt.Errorf("%w: %q is missing a prefix length", ErrMalformed, s)
	}

	addr, err := ParseAddr(a)
	if err != nil {
		return netip.Prefix{}, err
	}

	if !isDecimal(l) {
		return netip.Prefix{}, fmt.Errorf("%w: %q has a malformed prefix length", ErrMalformed, s)
	}

	// Only overflow is left to fail.
	bits, err := strconv.Atoi(l)
	if err != nil || bits > 32 {
		return netip.Prefix{}, fmt.Errorf("%w: %s", ErrPrefixLength, l)
	}

	return netip.PrefixFrom(addr, bits), nil
}

func isDecimal(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// NetworkAndBroadcast returns p with all host bits cleared and with all host
// bits set. Both results keep p's prefix length.
func NetworkAndBroadcast(p netip.Prefix) (network, broadcast netip.Prefix) {
	network = p.Masked()
	broadcast = netip.PrefixFrom(netipx.PrefixLastIP(network), p.Bits())
	return network, broadcast
}

// IsValidHostAddress reports whether p's address can be assigned to an
// interface: it must be a well formed IPv4 prefix and must be neither the
// network nor the broadcast address of its subnet.
func IsValidHostAddress(p, network, broadcast netip.Prefix) bool {
	if !p.IsValid() || !p.Addr().Is4() || p.Bits() > 32 {
		return false
	}

	addr := p.Addr()
	return addr != network.Addr() && addr != broadcast.Addr()
}

// ValidateHost parses s and checks that it names an assignable host address.
// It returns the parsed address and its network.
func ValidateHost(s string) (addr, network netip.Prefix, err error) {
	addr, err = ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, netip.Prefix{}, err
	}

	network, broadcast := NetworkAndBroadcast(addr)
	if !IsValidHostAddress(addr, network, broadcast) {
		switch addr.Addr() {
		case network.Addr():
			return netip.Prefix{}, netip.Prefix{}, fmt.Errorf("%w: %s is the network address of %s", ErrNotHost, addr.Addr(), network)
		default:
			return netip.Prefix{}, netip.Prefix{}, fmt.Errorf("%w: %s is the broadcast address of %s", ErrNotHost, addr.Addr(), network)
		}
	}

	return addr, network, nil
}

// HostCount returns the number of assignable host addresses in p's subnet.
func HostCount(p netip.Prefix) uint64 {
	if p.Bits() >= 31 {
		return 0
	}

	return gocidr.AddressCount(netipx.PrefixIPNet(p.Masked())) - 2
}

// HostRange returns the first and last assignable host addresses in p's
// subnet. ok is false when the subnet has no host addresses.
func HostRange(p netip.Prefix) (first, last netip.Addr, ok bool) {
	if p.Bits() >= 31 {
		return netip.Addr{}, netip.Addr{}, false
	}

	lo, hi := gocidr.AddressRange(netipx.PrefixIPNet(p.Masked()))

	first, ok1 := netipx.FromStdIP(gocidr.Inc(lo))
	last, ok2 := netipx.FromStdIP(gocidr.Dec(hi))
	if !ok1 || !ok2 {
		return netip.Addr{}, netip.Addr{}, false
	}

	return first, last, true
}
