package router

import (
	"fmt"
	"net/netip"

	"github.com/davidbalbert/routersim/cidr"
	"golang.org/x/exp/slices"
)

const directlyConnected = "directly connected"

// Destination is either the default route or an IPv4 network. The zero
// Destination is DefaultRoute.
type Destination struct {
	network netip.Prefix
}

var DefaultRoute = Destination{}

// Network returns the destination for p's network. Any prefix whose network
// is 0.0.0.0/0 is DefaultRoute.
func Network(p netip.Prefix) Destination {
	p = p.Masked()
	if p.Bits() == 0 {
		return DefaultRoute
	}
	return Destination{network: p}
}

func ParseDestination(s string) (Destination, error) {
	if s == "default" {
		return DefaultRoute, nil
	}

	p, err := cidr.ParsePrefix(s)
	if err != nil {
		return Destination{}, err
	}

	return Network(p), nil
}

func (d Destination) IsDefault() bool {
	return !d.network.IsValid()
}

func (d Destination) Prefix() netip.Prefix {
	if d.IsDefault() {
		return netip.PrefixFrom(netip.IPv4Unspecified(), 0)
	}
	return d.network
}

func (d Destination) String() string {
	if d.IsDefault() {
		return "default"
	}
	return d.network.String()
}

// NextHop is either a local interface (directly connected) or a gateway
// address with an optional egress interface.
type NextHop struct {
	Gateway   netip.Addr
	Interface string
}

func Connected(iface string) NextHop {
	return NextHop{Interface: iface}
}

func Via(gw netip.Addr, iface string) NextHop {
	return NextHop{Gateway: gw, Interface: iface}
}

func (n NextHop) IsConnected() bool {
	return !n.Gateway.IsValid()
}

func (n NextHop) String() string {
	if n.IsConnected() {
		return directlyConnected + " " + n.Interface
	}

	if n.Interface == "" {
		return n.Gateway.String()
	}

	return fmt.Sprintf("%s %s", n.Gateway, n.Interface)
}

// Route is one row of a route table snapshot. Set is false only for the
// default route when no default has been configured.
type Route struct {
	Destination Destination
	NextHop     NextHop
	Set         bool
}

func (r Route) NextHopString() string {
	if !r.Set {
		return "not set"
	}
	return r.NextHop.String()
}

func (r Route) String() string {
	return fmt.Sprintf("%s %s", r.Destination, r.NextHopString())
}

type routeTable struct {
	routes map[Destination]NextHop
}

func newRouteTable() *routeTable {
	return &routeTable{routes: make(map[Destination]NextHop)}
}

func (t *routeTable) get(d Destination) (NextHop, bool) {
	nh, ok := t.routes[d]
	return nh, ok
}

func (t *routeTable) set(d Destination, nh NextHop) {
	if d.IsDefault() {
		nh.Interface = ""
	}
	t.routes[d] = nh
}

// remove deletes d. Removing DefaultRoute only resets it to unset, so it always
// succeeds.
func (t *routeTable) remove(d Destination) bool {
	_, ok := t.routes[d]
	delete(t.routes, d)
	return ok || d.IsDefault()
}

// egressingVia returns the destinations of gateway routes that leave through
// iface.
func (t *routeTable) egressingVia(iface string) []Destination {
	var dsts []Destination
	for d, nh := range t.routes {
		if !nh.IsConnected() && nh.Interface == iface {
			dsts = append(dsts, d)
		}
	}
	return dsts
}

func (t *routeTable) snapshot() []Route {
	routes := make([]Route, 0, len(t.routes)+1)

	nh, ok := t.routes[DefaultRoute]
	routes = append(routes, Route{Destination: DefaultRoute, NextHop: nh, Set: ok})

	rest := make([]Route, 0, len(t.routes))
	for d, nh := range t.routes {
		if d.IsDefault() {
			continue
		}
		rest = append(rest, Route{Destination: d, NextHop: nh, Set: true})
	}

	slices.SortFunc(rest, func(a, b Route) bool {
		pa, pb := a.Destination.network, b.Destination.network
		if pa.Addr() != pb.Addr() {
			return pa.Addr().Less(pb.Addr())
		}
		return pa.Bits() < pb.Bits()
	})

	return append(routes, rest...)
}

// lookup does a longest prefix match for addr.
func (t *routeTable) lookup(addr netip.Addr) (Route, bool) {
	best := Route{}
	found := false

	for d, nh := range t.routes {
		p := d.Prefix()
		if !p.Contains(addr) {
			continue
		}

		if !found || p.Bits() > best.Destination.Prefix().Bits() {
			best = Route{Destination: d, NextHop: nh, Set: true}
			found = true
		}
	}

	return best, found
}
