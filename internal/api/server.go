package api

import (
	"context"
	"errors"
	"fmt"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/miradorstack/sda-engine/internal/config"
	sdav1 "github.com/miradorstack/sda-engine/internal/grpc/sdav1"
)

// Server hosts the ApprovalEngine and the standard gRPC health service on one
// listener.
type Server struct {
	rpc    *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewServer binds cfg.Address and registers service. Extra options are appended
// after the prometheus interceptors.
func NewServer(cfg config.ServerConfig, service sdav1.ApprovalEngineServer, opts ...grpc.ServerOption) (*Server, error) {
	if service == nil {
		return nil, errors.New("approval engine service is required")
	}
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	grpc_prometheus.EnableHandlingTimeHistogram()
	rpc := grpc.NewServer(append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	}, opts...)...)

	sdav1.RegisterApprovalEngineServer(rpc, service)
	grpc_prometheus.Register(rpc)

	hs := health.NewServer()
	for _, name := range []string{"", sdav1.ApprovalEngineServiceDesc.ServiceName} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(rpc, hs)

	return &Server{rpc: rpc, health: hs, lis: lis}, nil
}

// Serve blocks until the server stops. A graceful stop returns nil.
func (s *Server) Serve() error {
	return s.rpc.Serve(s.lis)
}

// Shutdown flips health to NOT_SERVING and drains in-flight calls. Calls still
// running when ctx ends are cut off; the result reports whether draining finished.
func (s *Server) Shutdown(ctx context.Context) bool {
	s.health.Shutdown()

	drained := make(chan struct{})
	go func() {
		s.rpc.GracefulStop()
		close(drained)
	}()

	select {
	case <-drained:
		return true
	case <-ctx.Done():
		s.rpc.Stop()
		return false
	}
}

// Address is the bound listener address, which differs from the configured one
// when port 0 was requested.
func (s *Server) Address() string {
	return s.lis.Addr().String()
}
