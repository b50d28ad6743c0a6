package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SwitchClient is the operator UI's handle on a running controller.
type SwitchClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// NewSwitchClient connects to the daemon's unix socket
// (e.g. "/tmp/autothrottle.sock").
func NewSwitchClient(socketPath string) (*SwitchClient, error) {
	conn, err := grpc.NewClient(
		"unix:"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}
	return &SwitchClient{conn: conn, cc: conn}, nil
}

// NewSwitchClientConn wraps an existing connection, which the caller
// keeps ownership of.
func NewSwitchClientConn(cc grpc.ClientConnInterface) *SwitchClient {
	return &SwitchClient{cc: cc}
}

// Close closes the gRPC connection
func (c *SwitchClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status returns the controller's latest snapshot.
func (c *SwitchClient) Status(ctx context.Context) (Status, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetStatus, &emptypb.Empty{}, out); err != nil {
		return Status{}, fmt.Errorf("failed to get status: %w", err)
	}
	return StatusFromStruct(out)
}

// Toggle flips the master switch and returns the new position.
func (c *SwitchClient) Toggle(ctx context.Context) (bool, error) {
	return c.invokeBool(ctx, methodToggle)
}

// ToggleRepeat flips the repeat flag and returns the new position.
func (c *SwitchClient) ToggleRepeat(ctx context.Context) (bool, error) {
	return c.invokeBool(ctx, methodToggleRepeat)
}

// Disable turns the master switch off and reports whether it was on.
func (c *SwitchClient) Disable(ctx context.Context) (bool, error) {
	return c.invokeBool(ctx, methodDisable)
}

func (c *SwitchClient) invokeBool(ctx context.Context, method string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, method, &emptypb.Empty{}, out); err != nil {
		return false, fmt.Errorf("%s failed: %w", method, err)
	}
	return out.GetValue(), nil
}
