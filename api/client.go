package api

import (
	"context"
	"fmt"

	"github.com/davidbalbert/routersim/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Client struct {
	*grpc.ClientConn
	*rpc.Client
}

func NewClient(socketPath string) (*Client, error) {
	return Dial(context.Background(), fmt.Sprintf("unix://%s", socketPath))
}

func Dial(ctx context.Context, target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.DialContext(ctx, target, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		ClientConn: conn,
		Client:     rpc.NewClient(conn),
	}, nil
}
