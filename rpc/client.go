package rpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client converts between the wire level APIClient and the Info types.
type Client struct {
	api *APIClient
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{api: NewAPIClient(cc)}
}

func (c *Client) GetVersion(ctx context.Context) (string, error) {
	resp, err := c.api.GetVersion(ctx, &emptypb.Empty{})
	if err != nil {
		return "", err
	}

	return resp.GetValue(), nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.api.Shutdown(ctx, &emptypb.Empty{})
	return err
}

func (c *Client) GetRouters(ctx context.Context) ([]RouterInfo, error) {
	resp, err := c.api.GetRouters(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}

	return fromList(resp, routerFromStruct), nil
}

func (c *Client) GetInterfaces(ctx context.Context, hostname string) ([]InterfaceInfo, error) {
	resp, err := c.api.GetInterfaces(ctx, wrapperspb.String(hostname))
	if err != nil {
		return nil, err
	}

	return fromList(resp, interfaceFromStruct), nil
}

func (c *Client) GetRoutes(ctx context.Context, hostname string) ([]RouteInfo, error) {
	resp, err := c.api.GetRoutes(ctx, wrapperspb.String(hostname))
	if err != nil {
		return nil, err
	}

	return fromList(resp, routeFromStruct), nil
}

func (c *Client) GetLinks(ctx context.Context, hostname string) ([]LinkInfo, error) {
	resp, err := c.api.GetLinks(ctx, wrapperspb.String(hostname))
	if err != nil {
		return nil, err
	}

	return fromList(resp, linkFromStruct), nil
}

// WatchEvents calls f for every event the server sends. It returns nil when
// the server closes the stream.
func (c *Client) WatchEvents(ctx context.Context, f func(EventInfo) error) error {
	stream, err := c.api.WatchEvents(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}

	for {
		m, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		if err := f(eventFromStruct(m)); err != nil {
			return err
		}
	}
}
