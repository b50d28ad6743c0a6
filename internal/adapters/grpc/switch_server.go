package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"google.golang.org/grpc"
)

// SwitchServer serves the master switch on a unix socket.
type SwitchServer struct {
	listener net.Listener
	server   *grpc.Server
	logger   *slog.Logger
}

// NewSwitchServer listens on socketPath, replacing a stale socket file.
func NewSwitchServer(socketPath string, service SwitchServiceServer, logger *slog.Logger) (*SwitchServer, error) {
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
	}

	// Set socket permissions (owner only)
	if err := os.Chmod(socketPath, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return NewSwitchServerWithListener(listener, service, logger), nil
}

// NewSwitchServerWithListener serves on an existing listener.
func NewSwitchServerWithListener(listener net.Listener, service SwitchServiceServer, logger *slog.Logger) *SwitchServer {
	if logger == nil {
		logger = slog.Default()
	}
	server := grpc.NewServer()
	RegisterSwitchServiceServer(server, service)
	return &SwitchServer{listener: listener, server: server, logger: logger}
}

// Addr returns the listening address.
func (s *SwitchServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve blocks until ctx is cancelled or the server fails. Cancellation
// stops the server gracefully and is not an error.
func (s *SwitchServer) Serve(ctx context.Context) error {
	s.logger.Info("switch service listening", "addr", s.listener.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("switch service stopping")
		s.server.GracefulStop()
		return nil
	}
}
