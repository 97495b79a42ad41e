package grpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// EngineService is the health service name reporting whether the tick loop is running
const EngineService = "colonysim.Engine"

// HealthServer exposes the standard gRPC health service for the daemon.
//
// The overall ("") status is SERVING while the process is up. EngineService
// flips to NOT_SERVING when the engine halts or stops.
type HealthServer struct {
	listener net.Listener
	server   *grpc.Server
	health   *health.Server
	logger   shared.Logger
}

// NewHealthServer listens on address. "unix:/path" creates an owner-only Unix
// socket, anything else is a TCP address.
func NewHealthServer(address string, logger shared.Logger) (*HealthServer, error) {
	if logger == nil {
		logger = shared.NoOpLogger{}
	}

	listener, err := listen(address)
	if err != nil {
		return nil, err
	}

	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(EngineService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		listener: listener,
		server:   server,
		health:   hs,
		logger:   logger,
	}, nil
}

func listen(address string) (net.Listener, error) {
	if socketPath, ok := strings.CutPrefix(address, "unix:"); ok {
		// Remove existing socket file if present
		if err := os.RemoveAll(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove existing socket: %w", err)
		}
		listener, err := net.Listen("unix", socketPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
		}
		if err := os.Chmod(socketPath, 0600); err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to set socket permissions: %w", err)
		}
		return listener, nil
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return listener, nil
}

// Addr returns the listening address
func (s *HealthServer) Addr() net.Addr {
	return s.listener.Addr()
}

// SetEngineServing updates the engine health status
func (s *HealthServer) SetEngineServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(EngineService, status)
}

// Serve blocks until ctx is cancelled or the server fails. On cancellation every
// service is marked NOT_SERVING and in-flight calls are drained.
func (s *HealthServer) Serve(ctx context.Context) error {
	s.logger.Log(shared.LevelInfo, "health server listening", map[string]interface{}{
		"address": s.listener.Addr().String(),
	})

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		s.logger.Log(shared.LevelInfo, "health server stopped", nil)
		return nil
	}
}
