package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "routersim.API"

// APIServer is the wire level service. Requests and replies are protobuf
// well-known types, so no generated code is needed.
type APIServer interface {
	GetVersion(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetRouters(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetInterfaces(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetRoutes(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetLinks(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	WatchEvents(*emptypb.Empty, WatchEventsServer) error
}

type WatchEventsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchEventsServer struct {
	grpc.ServerStream
}

func (s *watchEventsServer) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func unary[Req, Resp any](name string, call func(APIServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(APIServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}

			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(APIServer), ctx, req.(*Req))
			})
		},
	}
}

func watchEventsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	return srv.(APIServer).WatchEvents(in, &watchEventsServer{stream})
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*APIServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetVersion", APIServer.GetVersion),
		unary("Shutdown", APIServer.Shutdown),
		unary("GetRouters", APIServer.GetRouters),
		unary("GetInterfaces", APIServer.GetInterfaces),
		unary("GetRoutes", APIServer.GetRoutes),
		unary("GetLinks", APIServer.GetLinks),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "routersim/rpc",
}

func RegisterAPIServer(s grpc.ServiceRegistrar, srv APIServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type APIClient struct {
	cc grpc.ClientConnInterface
}

func NewAPIClient(cc grpc.ClientConnInterface) *APIClient {
	return &APIClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetVersion(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[emptypb.Empty, wrapperspb.StringValue](ctx, c.cc, "GetVersion", in, opts...)
}

func (c *APIClient) Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, "Shutdown", in, opts...)
}

func (c *APIClient) GetRouters(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[emptypb.Empty, structpb.ListValue](ctx, c.cc, "GetRouters", in, opts...)
}

func (c *APIClient) GetInterfaces(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[wrapperspb.StringValue, structpb.ListValue](ctx, c.cc, "GetInterfaces", in, opts...)
}

func (c *APIClient) GetRoutes(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[wrapperspb.StringValue, structpb.ListValue](ctx, c.cc, "GetRoutes", in, opts...)
}

func (c *APIClient) GetLinks(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[wrapperspb.StringValue, structpb.ListValue](ctx, c.cc, "GetLinks", in, opts...)
}

type WatchEventsClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type watchEventsClient struct {
	grpc.ClientStream
}

func (c *watchEventsClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *APIClient) WatchEvents(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (WatchEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+serviceName+"/WatchEvents", opts...)
	if err != nil {
		return nil, err
	}

	x := &watchEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
