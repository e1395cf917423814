package router

import (
	"net/netip"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Interface struct {
	Name    string
	Address netip.Prefix // zero when unassigned
}

func (i Interface) Assigned() bool {
	return i.Address.IsValid()
}

// Network returns the network of the interface's address. It is only
// meaningful when the interface is assigned.
func (i Interface) Network() netip.Prefix {
	return i.Address.Masked()
}

func (i Interface) AddressString() string {
	if !i.Assigned() {
		return "unassigned"
	}
	return i.Address.String()
}

type interfaceTable struct {
	addrs map[string]netip.Prefix
}

func newInterfaceTable() *interfaceTable {
	return &interfaceTable{addrs: make(map[string]netip.Prefix)}
}

func (t *interfaceTable) add(name string) bool {
	if _, ok := t.addrs[name]; ok {
		return false
	}

	t.addrs[name] = netip.Prefix{}
	return true
}

func (t *interfaceTable) remove(name string) bool {
	if _, ok := t.addrs[name]; !ok {
		return false
	}

	delete(t.addrs, name)
	return true
}

func (t *interfaceTable) get(name string) (Interface, bool) {
	addr, ok := t.addrs[name]
	if !ok {
		return Interface{}, false
	}
	return Interface{Name: name, Address: addr}, true
}

func (t *interfaceTable) setAddress(name string, addr netip.Prefix) {
	t.addrs[name] = addr
}

func (t *interfaceTable) clearAddress(name string) {
	t.addrs[name] = netip.Prefix{}
}

// owner returns the interface whose address lies in network, if any.
func (t *interfaceTable) owner(network netip.Prefix) (string, bool) {
	for name, addr := range t.addrs {
		if addr.IsValid() && addr.Masked() == network {
			return name, true
		}
	}
	return "", false
}

func (t *interfaceTable) list() []Interface {
	names := maps.Keys(t.addrs)
	slices.Sort(names)

	ifaces := make([]Interface, len(names))
	for i, name := range names {
		ifaces[i] = Interface{Name: name, Address: t.addrs[name]}
	}

	return ifaces
}
