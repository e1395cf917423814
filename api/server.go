package api

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"sync"

	"github.com/davidbalbert/routersim/cidr"
	"github.com/davidbalbert/routersim/events"
	"github.com/davidbalbert/routersim/rpc"
	"github.com/davidbalbert/routersim/router"
	"github.com/davidbalbert/routersim/topology"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	reg      *topology.Registry
	bus      *events.Bus
	shutdown context.CancelFunc
	socket   string
	version  string
	log      logrus.FieldLogger

	stop     chan struct{}
	stopOnce sync.Once
}

var _ rpc.APIService = (*Server)(nil)

func NewServer(reg *topology.Registry, bus *events.Bus, socket string, shutdown context.CancelFunc, version string) *Server {
	return &Server{
		reg:      reg,
		bus:      bus,
		shutdown: shutdown,
		socket:   socket,
		version:  version,
		log:      logrus.WithField("component", "api"),
		stop:     make(chan struct{}),
	}
}

// Run listens on the server's unix socket, replacing a stale socket file left
// by an earlier run.
func (s *Server) Run(ctx context.Context) error {
	if err := os.Remove(s.socket); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	listener, err := net.Listen("unix", s.socket)
	if err != nil {
		return err
	}

	s.log.Infof("listening on %s", s.socket)

	return s.Serve(ctx, listener)
}

// Serve handles requests on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	grpcServer := grpc.NewServer()
	rpc.RegisterAPIServer(grpcServer, rpc.NewAPIServer(s))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return grpcServer.Serve(listener)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.stopOnce.Do(func() { close(s.stop) })
		grpcServer.GracefulStop()
		s.log.Info("stopped")
		return nil
	})

	return g.Wait()
}

func (s *Server) GetVersion(ctx context.Context) (string, error) {
	return s.version, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutdown requested")
	s.shutdown()
	return nil
}

func (s *Server) GetRouters(ctx context.Context) ([]rpc.RouterInfo, error) {
	routers := s.reg.Routers()

	infos := make([]rpc.RouterInfo, len(routers))
	for i, r := range routers {
		id := r.Identity()
		infos[i] = rpc.RouterInfo{
			Hostname: id.Hostname,
			Brand:    id.Brand,
			Model:    id.Model,
			OS:       id.OS,
		}
	}

	return infos, nil
}

func (s *Server) get(hostname string) (*router.Router, error) {
	r, ok := s.reg.Get(hostname)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "router %s not found", hostname)
	}
	return r, nil
}

func (s *Server) GetInterfaces(ctx context.Context, hostname string) ([]rpc.InterfaceInfo, error) {
	r, err := s.get(hostname)
	if err != nil {
		return nil, err
	}

	ifaces := r.Interfaces()

	infos := make([]rpc.InterfaceInfo, len(ifaces))
	for i, iface := range ifaces {
		infos[i] = rpc.InterfaceInfo{
			Name:    iface.Name,
			Address: iface.AddressString(),
		}

		if iface.Assigned() {
			infos[i].Network = iface.Network().String()
			infos[i].Hosts = cidr.HostCount(iface.Address)
		}
	}

	return infos, nil
}

func (s *Server) GetRoutes(ctx context.Context, hostname string) ([]rpc.RouteInfo, error) {
	r, err := s.get(hostname)
	if err != nil {
		return nil, err
	}

	routes := r.Routes()

	infos := make([]rpc.RouteInfo, len(routes))
	for i, route := range routes {
		infos[i] = rpc.RouteInfo{
			Destination: route.Destination.String(),
			NextHop:     route.NextHopString(),
		}
	}

	return infos, nil
}

func (s *Server) GetLinks(ctx context.Context, hostname string) ([]rpc.LinkInfo, error) {
	if _, err := s.get(hostname); err != nil {
		return nil, err
	}

	links := s.reg.Links(hostname)

	names := maps.Keys(links)
	slices.Sort(names)

	infos := make([]rpc.LinkInfo, len(names))
	for i, name := range names {
		infos[i] = rpc.LinkInfo{
			Interface:     name,
			Peer:          links[name].Router,
			PeerInterface: links[name].Interface,
		}
	}

	return infos, nil
}

func (s *Server) WatchEvents(ctx context.Context, send func(rpc.EventInfo) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	tok := s.bus.Subscribe()
	defer s.bus.Unsubscribe(tok)

	for {
		e, ok := s.bus.Next(ctx, tok)
		if !ok {
			return nil
		}

		err := send(rpc.EventInfo{
			Type:      string(e.Type),
			Router:    e.Router,
			Interface: e.Interface,
			Detail:    e.Detail,
		})
		if err != nil {
			return err
		}
	}
}
