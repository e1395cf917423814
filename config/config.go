package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/davidbalbert/routersim/cidr"
	"github.com/davidbalbert/routersim/router"
	"github.com/davidbalbert/routersim/topology"
	"gopkg.in/yaml.v3"
)

const unknown = "unknown"

type Config struct {
	Routers []RouterConfig `yaml:"routers"`
	Links   []LinkConfig   `yaml:"links,omitempty"`
}

type RouterConfig struct {
	Hostname   string            `yaml:"hostname"`
	Brand      string            `yaml:"brand,omitempty"`
	Model      string            `yaml:"model,omitempty"`
	OS         string            `yaml:"os,omitempty"`
	Interfaces []InterfaceConfig `yaml:"interfaces,omitempty"`
	Routes     []RouteConfig     `yaml:"routes,omitempty"`
}

type InterfaceConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address,omitempty"`
}

type RouteConfig struct {
	Destination string `yaml:"destination"`
	NextHop     string `yaml:"next-hop"`
	Interface   string `yaml:"interface,omitempty"`
}

type LinkConfig struct {
	Router        string `yaml:"router"`
	Interface     string `yaml:"interface"`
	Peer          string `yaml:"peer"`
	PeerInterface string `yaml:"peer-interface"`
}

func (l LinkConfig) endpoints() (topology.Endpoint, topology.Endpoint) {
	return topology.Endpoint{Router: l.Router, Interface: l.Interface},
		topology.Endpoint{Router: l.Peer, Interface: l.PeerInterface}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Parse decodes a topology file. Unknown keys are errors.
func Parse(b []byte) (*Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	c.setDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) setDefaults() {
	for i := range c.Routers {
		rc := &c.Routers[i]

		if rc.Brand == "" {
			rc.Brand = unknown
		}

		if rc.Model == "" {
			rc.Model = unknown
		}

		if rc.OS == "" {
			rc.OS = unknown
		}
	}
}

// Validate checks everything that can be checked without building routers.
func (c *Config) Validate() error {
	hostnames := make(map[string]bool)
	ifaces := make(map[topology.Endpoint]bool)

	for _, rc := range c.Routers {
		if rc.Hostname == "" {
			return fmt.Errorf("router: hostname is required")
		}

		if hostnames[rc.Hostname] {
			return fmt.Errorf("router %s: duplicate hostname", rc.Hostname)
		}
		hostnames[rc.Hostname] = true

		for _, ic := range rc.Interfaces {
			if ic.Name == "" {
				return fmt.Errorf("router %s: interface name is required", rc.Hostname)
			}

			e := topology.Endpoint{Router: rc.Hostname, Interface: ic.Name}
			if ifaces[e] {
				return fmt.Errorf("router %s: duplicate interface %s", rc.Hostname, ic.Name)
			}
			ifaces[e] = true

			if ic.Address != "" {
				if _, _, err := cidr.ValidateHost(ic.Address); err != nil {
					return fmt.Errorf("router %s: interface %s: %w", rc.Hostname, ic.Name, err)
				}
			}
		}

		for _, route := range rc.Routes {
			if _, err := router.ParseDestination(route.Destination); err != nil {
				return fmt.Errorf("router %s: route %s: %w", rc.Hostname, route.Destination, err)
			}

			if _, err := cidr.ParseAddr(route.NextHop); err != nil {
				return fmt.Errorf("router %s: route %s: next-hop: %w", rc.Hostname, route.Destination, err)
			}

			if route.Interface != "" && !ifaces[topology.Endpoint{Router: rc.Hostname, Interface: route.Interface}] {
				return fmt.Errorf("router %s: route %s: unknown interface %s", rc.Hostname, route.Destination, route.Interface)
			}
		}
	}

	for _, l := range c.Links {
		a, b := l.endpoints()
		for _, e := range []topology.Endpoint{a, b} {
			if !ifaces[e] {
				return fmt.Errorf("link %s - %s: unknown interface %s", a, b, e)
			}
		}
	}

	return nil
}

// Apply builds the configured routers and links into reg.
func (c *Config) Apply(reg *topology.Registry) error {
	for _, rc := range c.Routers {
		r := router.New(router.Identity{
			Hostname: rc.Hostname,
			Brand:    rc.Brand,
			Model:    rc.Model,
			OS:       rc.OS,
		})

		if err := reg.Add(r); err != nil {
			return err
		}

		for _, ic := range rc.Interfaces {
			if err := r.AddInterface(ic.Name); err != nil {
				return fmt.Errorf("router %s: %w", rc.Hostname, err)
			}

			if ic.Address == "" {
				continue
			}

			if err := r.SetIP(ic.Name, ic.Address); err != nil {
				return fmt.Errorf("router %s: interface %s: %w", rc.Hostname, ic.Name, err)
			}
		}

		for _, route := range rc.Routes {
			if err := r.AddRoute(route.Destination, route.NextHop, route.Interface); err != nil {
				return fmt.Errorf("router %s: route %s: %w", rc.Hostname, route.Destination, err)
			}
		}
	}

	for _, l := range c.Links {
		a, b := l.endpoints()
		if err := reg.Connect(a, b); err != nil {
			return fmt.Errorf("link %s - %s: %w", a, b, err)
		}
	}

	return nil
}

// FromRegistry returns the running configuration of reg. Directly connected
// routes are implied by interface addresses and are left out.
func FromRegistry(reg *topology.Registry) *Config {
	c := &Config{}

	for _, r := range reg.Routers() {
		id := r.Identity()

		rc := RouterConfig{
			Hostname: id.Hostname,
			Brand:    id.Brand,
			Model:    id.Model,
			OS:       id.OS,
		}

		for _, iface := range r.Interfaces() {
			ic := InterfaceConfig{Name: iface.Name}
			if iface.Assigned() {
				ic.Address = iface.Address.String()
			}
			rc.Interfaces = append(rc.Interfaces, ic)
		}

		for _, route := range r.Routes() {
			if !route.Set || route.NextHop.IsConnected() {
				continue
			}

			rc.Routes = append(rc.Routes, RouteConfig{
				Destination: route.Destination.Prefix().String(),
				NextHop:     route.NextHop.Gateway.String(),
				Interface:   route.NextHop.Interface,
			})
		}

		c.Routers = append(c.Routers, rc)
	}

	for _, l := range reg.AllLinks() {
		c.Links = append(c.Links, LinkConfig{
			Router:        l.A.Router,
			Interface:     l.A.Interface,
			Peer:          l.B.Router,
			PeerInterface: l.B.Interface,
		})
	}

	return c
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
