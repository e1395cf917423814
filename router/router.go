// Package router models a single router: its interfaces and their IPv4
// addresses, and a static route table that always carries a directly
// connected route for every assigned interface.
package router

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/davidbalbert/routersim/cidr"
	"github.com/davidbalbert/routersim/events"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrExists     = errors.New("already exists")
	ErrInvalid    = errors.New("invalid")
	ErrUnassigned = errors.New("interface has no address")
	ErrConflict   = errors.New("conflicts with a directly connected route")
)

type Identity struct {
	Hostname string
	Brand    string
	Model    string
	OS       string
}

type Router struct {
	mu sync.Mutex

	id         Identity
	interfaces *interfaceTable
	routes     *routeTable

	pub    events.Publisher
	logger logrus.FieldLogger
	log    logrus.FieldLogger
}

func New(id Identity) *Router {
	r := &Router{
		id:         id,
		interfaces: newInterfaceTable(),
		routes:     newRouteTable(),
		pub:        events.Discard,
		logger:     logrus.StandardLogger(),
	}
	r.log = r.logger.WithField("router", id.Hostname)

	return r
}

func (r *Router) SetPublisher(p events.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p == nil {
		p = events.Discard
	}
	r.pub = p
}

func (r *Router) SetLogger(l logrus.FieldLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger = l
	r.log = l.WithField("router", r.id.Hostname)
}

func (r *Router) Identity() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

func (r *Router) Hostname() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id.Hostname
}

// SetHostname renames the router. Routers registered with a topology
// registry should be renamed through the registry so links follow.
func (r *Router) SetHostname(hostname string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.id.Hostname = hostname
	r.log = r.logger.WithField("router", hostname)
}

func (r *Router) Brand() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id.Brand
}

func (r *Router) Model() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id.Model
}

func (r *Router) OS() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id.OS
}

func (r *Router) SetBrand(brand string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id.Brand = brand
}

func (r *Router) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id.Model = model
}

func (r *Router) SetOS(os string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id.OS = os
}

func (r *Router) publish(t events.Type, iface, detail string) {
	r.log.WithFields(logrus.Fields{"event": t, "interface": iface}).Debug(detail)
	r.pub.Publish(events.Event{Type: t, Router: r.id.Hostname, Interface: iface, Detail: detail})
}

func (r *Router) reject(op string, err error) error {
	r.log.WithError(err).Debugf("%s rejected", op)
	return err
}

func (r *Router) AddInterface(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return r.reject("add interface", fmt.Errorf("%w: empty interface name", ErrInvalid))
	}

	if !r.interfaces.add(name) {
		return r.reject("add interface", fmt.Errorf("interface %s: %w", name, ErrExists))
	}

	r.publish(events.InterfaceAdded, name, "")
	return nil
}

// DeleteInterface removes name. If the interface has an address, its
// directly connected route is removed first, along with any gateway routes
// that egress through it. The router knows nothing about links, so routers
// registered with a topology registry should drop interfaces through the
// registry, which unlinks the interface before deleting it.
func (r *Router) DeleteInterface(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iface, ok := r.interfaces.get(name)
	if !ok {
		return r.reject("delete interface", fmt.Errorf("interface %s: %w", name, ErrNotFound))
	}

	if iface.Assigned() {
		d := Network(iface.Network())
		r.routes.remove(d)
		r.publish(events.RouteDeleted, name, d.String())
	}

	for _, d := range r.routes.egressingVia(name) {
		r.routes.remove(d)
		r.publish(events.RouteDeleted, name, d.String())
	}

	r.interfaces.remove(name)
	r.publish(events.InterfaceDeleted, name, "")

	return nil
}

func (r *Router) HasInterface(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.interfaces.get(name)
	return ok
}

func (r *Router) Interface(name string) (Interface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interfaces.get(name)
}

// Interfaces returns a copy of the interface table sorted by name.
func (r *Router) Interfaces() []Interface {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interfaces.list()
}

// SetIP assigns addr ("a.b.c.d/len") to the interface and installs the
// directly connected route for its network. When the interface already has
// an address in a different network, the old network's route is removed.
// Addresses with a zero length mask are invalid, and an address whose
// network is already assigned to another interface fails with ErrConflict.
func (r *Router) SetIP(name, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iface, ok := r.interfaces.get(name)
	if !ok {
		return r.reject("set ip", fmt.Errorf("interface %s: %w", name, ErrNotFound))
	}

	p, network, err := cidr.ValidateHost(addr)
	if err != nil {
		return r.reject("set ip", fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	if p.Bits() == 0 {
		return r.reject("set ip", fmt.Errorf("%w: %s has a zero length mask", ErrInvalid, p))
	}

	if owner, ok := r.interfaces.owner(network); ok && owner != name {
		return r.reject("set ip", fmt.Errorf("%s %w on %s", network, ErrConflict, owner))
	}

	d := Network(network)

	if iface.Assigned() && iface.Network() != network {
		old := Network(iface.Network())
		r.routes.remove(old)
		r.publish(events.RouteDeleted, name, old.String())
	}

	if nh, ok := r.routes.get(d); ok && !nh.IsConnected() {
		r.log.Debugf("directly connected route replaces %s via %s", d, nh)
	}

	r.interfaces.setAddress(name, p)
	r.routes.set(d, Connected(name))

	r.publish(events.AddressSet, name, p.String())
	r.publish(events.RouteAdded, name, fmt.Sprintf("%s %s", d, Connected(name)))

	return nil
}

// DeleteIP clears the interface's address and removes its directly
// connected route.
func (r *Router) DeleteIP(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iface, ok := r.interfaces.get(name)
	if !ok {
		return r.reject("delete ip", fmt.Errorf("interface %s: %w", name, ErrNotFound))
	}

	if !iface.Assigned() {
		return r.reject("delete ip", fmt.Errorf("interface %s: %w", name, ErrUnassigned))
	}

	d := Network(iface.Network())
	r.routes.remove(d)
	r.interfaces.clearAddress(name)

	r.publish(events.RouteDeleted, name, d.String())
	r.publish(events.AddressCleared, name, iface.Address.String())

	return nil
}

// AddRoute installs a route to dst. nexthop is a gateway address or the
// literal "directly connected", which is only accepted for the network of an
// assigned iface. If iface is not empty it must exist. A 0.0.0.0/0 dst
// sets the default route and drops iface. A static route cannot replace a
// directly connected one; that fails with ErrConflict.
func (r *Router) AddRoute(dst, nexthop, iface string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := ParseDestination(dst)
	if err != nil {
		return r.reject("add route", fmt.Errorf("%w destination: %w", ErrInvalid, err))
	}

	if iface != "" {
		if _, ok := r.interfaces.get(iface); !ok {
			return r.reject("add route", fmt.Errorf("interface %s: %w", iface, ErrNotFound))
		}
	}

	var nh NextHop
	if nexthop == directlyConnected {
		owned, ok := r.interfaces.get(iface)
		if !ok || !owned.Assigned() || Network(owned.Network()) != d {
			return r.reject("add route", fmt.Errorf("%w: %s is not the network of an assigned interface", ErrInvalid, d))
		}
		nh = Connected(iface)
	} else {
		gw, err := cidr.ParseAddr(nexthop)
		if err != nil {
			return r.reject("add route", fmt.Errorf("%w next hop: %w", ErrInvalid, err))
		}
		nh = Via(gw, iface)
	}

	if existing, ok := r.routes.get(d); ok && existing.IsConnected() && existing != nh {
		return r.reject("add route", fmt.Errorf("%s %w on %s", d, ErrConflict, existing.Interface))
	}

	r.routes.set(d, nh)

	nh, _ = r.routes.get(d)
	r.publish(events.RouteAdded, nh.Interface, fmt.Sprintf("%s %s", d, nh))

	return nil
}

// DeleteRoute removes the route to dst's network. Deleting 0.0.0.0/0 resets
// the default route and always succeeds. Directly connected routes can only
// be removed by clearing the interface address or deleting the interface;
// deleting one here fails with ErrConflict.
func (r *Router) DeleteRoute(dst string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := ParseDestination(dst)
	if err != nil {
		return r.reject("delete route", fmt.Errorf("%w destination: %w", ErrInvalid, err))
	}

	nh, ok := r.routes.get(d)
	if !ok && !d.IsDefault() {
		return r.reject("delete route", fmt.Errorf("route %s: %w", d, ErrNotFound))
	}

	if ok && nh.IsConnected() {
		return r.reject("delete route", fmt.Errorf("%s %w on %s", d, ErrConflict, nh.Interface))
	}

	r.routes.remove(d)
	r.publish(events.RouteDeleted, "", d.String())

	return nil
}

// Routes returns a snapshot of the route table. The default route is always
// first, followed by networks in address order.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routes.snapshot()
}

// Route returns the next hop stored for dst.
func (r *Router) Route(dst string) (NextHop, bool) {
	d, err := ParseDestination(dst)
	if err != nil {
		return NextHop{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routes.get(d)
}

// Lookup returns the most specific route containing addr.
func (r *Router) Lookup(addr netip.Addr) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routes.lookup(addr)
}
