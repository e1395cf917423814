package rpc

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type RouterInfo struct {
	Hostname string
	Brand    string
	Model    string
	OS       string
}

type InterfaceInfo struct {
	Name    string
	Address string
	Network string
	Hosts   uint64
}

type RouteInfo struct {
	Destination string
	NextHop     string
}

type LinkInfo struct {
	Interface     string
	Peer          string
	PeerInterface string
}

type EventInfo struct {
	Type      string
	Router    string
	Interface string
	Detail    string
}

// APIService is implemented by the daemon. Errors it returns are passed
// through to clients unchanged, so they should be gRPC status errors.
type APIService interface {
	GetVersion(ctx context.Context) (string, error)
	Shutdown(ctx context.Context) error

	GetRouters(ctx context.Context) ([]RouterInfo, error)
	GetInterfaces(ctx context.Context, hostname string) ([]InterfaceInfo, error)
	GetRoutes(ctx context.Context, hostname string) ([]RouteInfo, error)
	GetLinks(ctx context.Context, hostname string) ([]LinkInfo, error)

	// WatchEvents calls send for every event until ctx is done or send
	// returns an error.
	WatchEvents(ctx context.Context, send func(EventInfo) error) error
}

type Server struct {
	apiService APIService
}

var _ APIServer = (*Server)(nil)

func NewAPIServer(apiService APIService) *Server {
	return &Server{
		apiService: apiService,
	}
}

func (s *Server) GetVersion(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {
	version, err := s.apiService.GetVersion(ctx)
	if err != nil {
		return nil, err
	}

	return wrapperspb.String(version), nil
}

func (s *Server) Shutdown(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	err := s.apiService.Shutdown(ctx)
	if err != nil {
		return nil, err
	}

	return &emptypb.Empty{}, nil
}

func (s *Server) GetRouters(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error) {
	routers, err := s.apiService.GetRouters(ctx)
	if err != nil {
		return nil, err
	}

	return toList(routers, func(r RouterInfo) *structpb.Struct {
		return fields("hostname", r.Hostname, "brand", r.Brand, "model", r.Model, "os", r.OS)
	}), nil
}

func (s *Server) GetInterfaces(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	interfaces, err := s.apiService.GetInterfaces(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	return toList(interfaces, func(i InterfaceInfo) *structpb.Struct {
		st := fields("name", i.Name, "address", i.Address, "network", i.Network)
		st.Fields["hosts"] = structpb.NewNumberValue(float64(i.Hosts))
		return st
	}), nil
}

func (s *Server) GetRoutes(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	routes, err := s.apiService.GetRoutes(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	return toList(routes, func(r RouteInfo) *structpb.Struct {
		return fields("destination", r.Destination, "next-hop", r.NextHop)
	}), nil
}

func (s *Server) GetLinks(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	links, err := s.apiService.GetLinks(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	return toList(links, func(l LinkInfo) *structpb.Struct {
		return fields("interface", l.Interface, "peer", l.Peer, "peer-interface", l.PeerInterface)
	}), nil
}

func (s *Server) WatchEvents(req *emptypb.Empty, stream WatchEventsServer) error {
	return s.apiService.WatchEvents(stream.Context(), func(e EventInfo) error {
		return stream.Send(fields("type", e.Type, "router", e.Router, "interface", e.Interface, "detail", e.Detail))
	})
}
