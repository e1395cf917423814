package shell

import (
	"fmt"
	"io"

	"github.com/davidbalbert/routersim/cidr"
	"github.com/davidbalbert/routersim/config"
	"github.com/davidbalbert/routersim/router"
	"github.com/davidbalbert/routersim/topology"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const unknown = "unknown"

func (cli *CLI) router(hostname string) (*router.Router, error) {
	r, ok := cli.reg.Get(hostname)
	if !ok {
		return nil, fmt.Errorf("router %s: %w", hostname, topology.ErrNotFound)
	}
	return r, nil
}

func (cli *CLI) registerShowCommands() {
	cli.Document("show", "Show topology information")
	cli.Document("show ip", "IP information")

	cli.MustRegister("show routers", "Routers in the topology", func(w io.Writer, args []string) error {
		return printTable(w, cli.reg.Routers(), []string{"Hostname", "Brand", "Model", "OS"}, func(r *router.Router) []string {
			id := r.Identity()
			return []string{id.Hostname, id.Brand, id.Model, id.OS}
		})
	})

	cli.MustRegister("show interfaces <router>", "Interface addresses", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return printTable(w, r.Interfaces(), []string{"Interface", "Address", "Network", "Hosts"}, func(iface router.Interface) []string {
			if !iface.Assigned() {
				return []string{iface.Name, iface.AddressString(), "", ""}
			}

			hosts := "none"
			if first, last, ok := cidr.HostRange(iface.Address); ok {
				hosts = fmt.Sprintf("%d (%s - %s)", cidr.HostCount(iface.Address), first, last)
			}

			return []string{iface.Name, iface.AddressString(), iface.Network().String(), hosts}
		})
	})

	cli.MustRegister("show ip route <router>", "Routing table", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return printRoutes(w, r.Routes())
	})

	cli.MustRegister("show ip route <router> <address>", "Route used to reach an address", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		addr, err := cidr.ParseAddr(args[1])
		if err != nil {
			return err
		}

		route, ok := r.Lookup(addr)
		if !ok {
			return fmt.Errorf("no route to %s", addr)
		}

		return printRoutes(w, []router.Route{route})
	})

	cli.MustRegister("show links <router>", "Links to other routers", func(w io.Writer, args []string) error {
		if _, err := cli.router(args[0]); err != nil {
			return err
		}

		links := cli.reg.Links(args[0])
		names := maps.Keys(links)
		slices.Sort(names)

		return printTable(w, names, []string{"Interface", "Peer", "Peer Interface"}, func(name string) []string {
			return []string{name, links[name].Router, links[name].Interface}
		})
	})

	cli.MustRegister("show running-config", "Current topology as YAML", func(w io.Writer, args []string) error {
		b, err := config.FromRegistry(cli.reg).Marshal()
		if err != nil {
			return err
		}

		_, err = w.Write(b)
		return err
	})
}

func printRoutes(w io.Writer, routes []router.Route) error {
	return printTable(w, routes, []string{"Destination", "Next Hop"}, func(r router.Route) []string {
		return []string{r.Destination.String(), r.NextHopString()}
	})
}

func (cli *CLI) registerRouterCommands() {
	cli.Document("router", "Add routers")
	cli.Document("no", "Negate a command")

	add := func(id router.Identity) error {
		return cli.reg.Add(router.New(id))
	}

	cli.MustRegister("router add <hostname>", "Add a router", func(w io.Writer, args []string) error {
		return add(router.Identity{Hostname: args[0], Brand: unknown, Model: unknown, OS: unknown})
	})

	cli.MustRegister("router add <hostname> <brand> <model> <os>", "Add a router", func(w io.Writer, args []string) error {
		return add(router.Identity{Hostname: args[0], Brand: args[1], Model: args[2], OS: args[3]})
	})

	cli.MustRegister("no router <router>", "Remove a router and its links", func(w io.Writer, args []string) error {
		return cli.reg.Remove(args[0])
	})

	cli.MustRegister("hostname <router> <hostname>", "Rename a router", func(w io.Writer, args []string) error {
		return cli.reg.Rename(args[0], args[1])
	})
}

func (cli *CLI) registerInterfaceCommands() {
	cli.Document("interface", "Add or delete interfaces")
	cli.Document("ip", "Interface addresses and static routes")
	cli.Document("no ip", "Remove addresses and static routes")

	cli.MustRegister("interface add <router> <name>", "Add an interface", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return r.AddInterface(args[1])
	})

	cli.MustRegister("interface delete <router> <iface>", "Delete an interface, its routes and its link", func(w io.Writer, args []string) error {
		return cli.reg.DeleteInterface(topology.Endpoint{Router: args[0], Interface: args[1]})
	})

	cli.MustRegister("ip address <router> <iface> <a.b.c.d/len>", "Set an interface address", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return r.SetIP(args[1], args[2])
	})

	cli.MustRegister("no ip address <router> <iface>", "Clear an interface address", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return r.DeleteIP(args[1])
	})
}

func (cli *CLI) registerRouteCommands() {
	addRoute := func(args []string, iface string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return r.AddRoute(args[1], args[2], iface)
	}

	cli.MustRegister("ip route <router> <destination> <next-hop>", "Add a static route", func(w io.Writer, args []string) error {
		return addRoute(args, "")
	})

	cli.MustRegister("ip route <router> <destination> <next-hop> <iface>", "Add a static route out an interface", func(w io.Writer, args []string) error {
		return addRoute(args, args[3])
	})

	cli.MustRegister("no ip route <router> <destination>", "Delete a static route", func(w io.Writer, args []string) error {
		r, err := cli.router(args[0])
		if err != nil {
			return err
		}

		return r.DeleteRoute(args[1])
	})
}

func (cli *CLI) registerLinkCommands() {
	endpoints := func(args []string) (topology.Endpoint, topology.Endpoint) {
		return topology.Endpoint{Router: args[0], Interface: args[1]}, topology.Endpoint{Router: args[2], Interface: args[3]}
	}

	cli.MustRegister("connect <router> <iface> <router> <iface>", "Link two interfaces", func(w io.Writer, args []string) error {
		return cli.reg.Connect(endpoints(args))
	})

	cli.MustRegister("disconnect <router> <iface> <router> <iface>", "Remove a link", func(w io.Writer, args []string) error {
		return cli.reg.Disconnect(endpoints(args))
	})
}
