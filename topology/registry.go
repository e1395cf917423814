// Package topology keeps the set of routers in a simulated network and the
// links between their interfaces. Links are undirected edges owned by the
// registry; routers never reference each other.
package topology

import (
	"errors"
	"fmt"
	"sync"

	"github.com/davidbalbert/routersim/events"
	"github.com/davidbalbert/routersim/router"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrExists    = errors.New("already exists")
	ErrLinked    = errors.New("already connected")
	ErrNotLinked = errors.New("not connected")
	ErrMismatch  = errors.New("link does not match")
)

// Endpoint names one side of a link.
type Endpoint struct {
	Router    string
	Interface string
}

func (e Endpoint) String() string {
	return e.Router + " " + e.Interface
}

type Link struct {
	A, B Endpoint
}

func (l Link) String() string {
	return fmt.Sprintf("%s <-> %s", l.A, l.B)
}

// Registry serializes all topology changes under a single lock, so a link is
// always visible from both of its endpoints or from neither.
type Registry struct {
	mu      sync.Mutex
	routers map[string]*router.Router
	peers   map[Endpoint]Endpoint // both directions of every link

	pub events.Publisher
	log logrus.FieldLogger
}

func NewRegistry(pub events.Publisher, log logrus.FieldLogger) *Registry {
	if pub == nil {
		pub = events.Discard
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Registry{
		routers: make(map[string]*router.Router),
		peers:   make(map[Endpoint]Endpoint),
		pub:     pub,
		log:     log.WithField("component", "topology"),
	}
}

// Add registers r under its hostname and points its events at the
// registry's publisher.
func (reg *Registry) Add(r *router.Router) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	name := r.Hostname()
	if name == "" {
		return fmt.Errorf("router hostname must not be empty")
	}

	if _, ok := reg.routers[name]; ok {
		return fmt.Errorf("router %s: %w", name, ErrExists)
	}

	r.SetPublisher(reg.pub)
	reg.routers[name] = r
	reg.publish(events.Event{Type: events.RouterAdded, Router: name})

	return nil
}

// Remove drops the router and every link touching it.
func (reg *Registry) Remove(hostname string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.routers[hostname]; !ok {
		return fmt.Errorf("router %s: %w", hostname, ErrNotFound)
	}

	for local, remote := range reg.peers {
		if local.Router == hostname {
			reg.unlink(local, remote)
		}
	}

	delete(reg.routers, hostname)
	reg.publish(events.Event{Type: events.RouterRemoved, Router: hostname})

	return nil
}

// Rename changes a router's hostname and rewrites the links that refer to it.
func (reg *Registry) Rename(from, to string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.routers[from]
	if !ok {
		return fmt.Errorf("router %s: %w", from, ErrNotFound)
	}

	if to == "" {
		return fmt.Errorf("router hostname must not be empty")
	}

	if _, ok := reg.routers[to]; ok && to != from {
		return fmt.Errorf("router %s: %w", to, ErrExists)
	}

	peers := make(map[Endpoint]Endpoint, len(reg.peers))
	for local, remote := range reg.peers {
		if local.Router == from {
			local.Router = to
		}
		if remote.Router == from {
			remote.Router = to
		}
		peers[local] = remote
	}
	reg.peers = peers

	delete(reg.routers, from)
	r.SetHostname(to)
	reg.routers[to] = r

	reg.publish(events.Event{Type: events.RouterRenamed, Router: to, Detail: from})

	return nil
}

func (reg *Registry) Get(hostname string) (*router.Router, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.routers[hostname]
	return r, ok
}

// Routers returns the registered routers sorted by hostname.
func (reg *Registry) Routers() []*router.Router {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	names := maps.Keys(reg.routers)
	slices.Sort(names)

	routers := make([]*router.Router, len(names))
	for i, name := range names {
		routers[i] = reg.routers[name]
	}

	return routers
}

func (reg *Registry) Hostnames() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	names := maps.Keys(reg.routers)
	slices.Sort(names)
	return names
}

func (reg *Registry) checkEndpoint(e Endpoint) error {
	r, ok := reg.routers[e.Router]
	if !ok {
		return fmt.Errorf("router %s: %w", e.Router, ErrNotFound)
	}

	if !r.HasInterface(e.Interface) {
		return fmt.Errorf("interface %s: %w", e, ErrNotFound)
	}

	return nil
}

// Connect links a and b. Both interfaces must exist and neither may already
// be linked.
func (reg *Registry) Connect(a, b Endpoint) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if err := reg.checkEndpoint(a); err != nil {
		return reg.reject("connect", err)
	}

	if err := reg.checkEndpoint(b); err != nil {
		return reg.reject("connect", err)
	}

	if a == b {
		return reg.reject("connect", fmt.Errorf("cannot connect %s to itself", a))
	}

	for _, e := range []Endpoint{a, b} {
		if peer, ok := reg.peers[e]; ok {
			return reg.reject("connect", fmt.Errorf("%s %w to %s", e, ErrLinked, peer))
		}
	}

	reg.peers[a] = b
	reg.peers[b] = a

	reg.publish(events.Event{Type: events.LinkUp, Router: a.Router, Interface: a.Interface, Detail: b.String()})
	reg.publish(events.Event{Type: events.LinkUp, Router: b.Router, Interface: b.Interface, Detail: a.String()})

	return nil
}

// Disconnect removes the link between a and b. It fails without changing
// anything unless each side refers to exactly the other.
func (reg *Registry) Disconnect(a, b Endpoint) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if err := reg.checkEndpoint(a); err != nil {
		return reg.reject("disconnect", err)
	}

	if err := reg.checkEndpoint(b); err != nil {
		return reg.reject("disconnect", err)
	}

	pa, okA := reg.peers[a]
	pb, okB := reg.peers[b]

	if !okA {
		return reg.reject("disconnect", fmt.Errorf("%s %w", a, ErrNotLinked))
	}

	if !okB {
		return reg.reject("disconnect", fmt.Errorf("%s %w", b, ErrNotLinked))
	}

	if pa != b || pb != a {
		return reg.reject("disconnect", fmt.Errorf("%w: %s is connected to %s, %s is connected to %s", ErrMismatch, a, pa, b, pb))
	}

	reg.unlink(a, b)

	return nil
}

// DeleteInterface removes the interface's link, if any, and then the
// interface itself.
func (reg *Registry) DeleteInterface(e Endpoint) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.routers[e.Router]
	if !ok {
		return fmt.Errorf("router %s: %w", e.Router, ErrNotFound)
	}

	if !r.HasInterface(e.Interface) {
		return fmt.Errorf("interface %s: %w", e, ErrNotFound)
	}

	if peer, ok := reg.peers[e]; ok {
		reg.unlink(e, peer)
	}

	return r.DeleteInterface(e.Interface)
}

// Peer returns the endpoint linked to e.
func (reg *Registry) Peer(e Endpoint) (Endpoint, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	peer, ok := reg.peers[e]
	return peer, ok
}

// Links returns hostname's link map: local interface name to remote
// endpoint.
func (reg *Registry) Links(hostname string) map[string]Endpoint {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	links := make(map[string]Endpoint)
	for local, remote := range reg.peers {
		if local.Router == hostname {
			links[local.Interface] = remote
		}
	}

	return links
}

// AllLinks returns every link once, with A ordered before B.
func (reg *Registry) AllLinks() []Link {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var links []Link
	for local, remote := range reg.peers {
		if endpointLess(local, remote) {
			links = append(links, Link{A: local, B: remote})
		}
	}

	slices.SortFunc(links, func(x, y Link) bool {
		if x.A != y.A {
			return endpointLess(x.A, y.A)
		}
		return endpointLess(x.B, y.B)
	})

	return links
}

func endpointLess(a, b Endpoint) bool {
	if a.Router != b.Router {
		return a.Router < b.Router
	}
	return a.Interface < b.Interface
}

func (reg *Registry) unlink(a, b Endpoint) {
	delete(reg.peers, a)
	delete(reg.peers, b)

	reg.publish(events.Event{Type: events.LinkDown, Router: a.Router, Interface: a.Interface, Detail: b.String()})
	reg.publish(events.Event{Type: events.LinkDown, Router: b.Router, Interface: b.Interface, Detail: a.String()})
}

func (reg *Registry) publish(e events.Event) {
	reg.log.WithField("event", e.Type).Debug(e)
	reg.pub.Publish(e)
}

func (reg *Registry) reject(op string, err error) error {
	reg.log.WithError(err).Debugf("%s rejected", op)
	return err
}
