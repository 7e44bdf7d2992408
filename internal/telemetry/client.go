package telemetry

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// #region client-struct
// Client wraps a gRPC connection to a StreamServer.
type Client struct {
	conn grpc.ClientConnInterface
	cc   *grpc.ClientConn // nil when built over an injected connection
}
// #endregion client-struct

// #region constructor
// NewClient connects to the Telemetry service at addr. The connection is
// established lazily on the first Subscribe.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: cc, cc: cc}, nil
}

// NewClientWithConn builds a Client over an existing connection.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}
// #endregion constructor

// #region subscribe
// Subscribe streams records to fn until ctx ends, the server closes the
// stream, or fn returns an error.
func (c *Client) Subscribe(ctx context.Context, fn func(Record) error) error {
	return Subscribe(ctx, c.conn, fn)
}
// #endregion subscribe

// Close releases the connection if the Client owns it.
func (c *Client) Close() error {
	if c.cc == nil {
		return nil
	}
	return c.cc.Close()
}
