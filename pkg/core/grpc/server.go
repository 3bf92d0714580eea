package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/msto63/kinematics/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// maxMessageSize bounds requests and responses in both directions. Programs
// and their variable sets are small, 4 MiB leaves plenty of room.
const maxMessageSize = 4 << 20

// ServerConfig configures a Server
type ServerConfig struct {
	Host string
	Port int

	// Reflection registers the reflection service for grpcurl and friends
	Reflection bool

	// Keepalive is the ping interval for idle connections; 0 disables pings
	Keepalive time.Duration

	// Logger receives call logs and recovered panics. Defaults to "grpc".
	Logger *logging.Logger
}

// DefaultServerConfig listens on all interfaces at the evaluator's gRPC port
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:       "0.0.0.0",
		Port:       9300,
		Reflection: true,
		Keepalive:  30 * time.Second,
	}
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server is a grpc.Server with the standard health service, request IDs,
// call logging and panic recovery installed
type Server struct {
	server *grpc.Server
	health *health.Server
	config ServerConfig
	logger *logging.Logger
}

// NewServer creates a Server. opts are appended after the built-in options.
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("grpc")
	}

	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMessageSize),
		grpc.MaxSendMsgSize(maxMessageSize),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(unaryServerChain(logger)...),
		grpc.ChainStreamInterceptor(recoverStream(logger)),
	}
	if cfg.Keepalive > 0 {
		serverOpts = append(serverOpts, grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.Keepalive,
			Timeout: cfg.Keepalive / 3,
		}))
	}
	server := grpc.NewServer(append(serverOpts, opts...)...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	if cfg.Reflection {
		reflection.Register(server)
	}

	return &Server{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}
}

// SetServingStatus updates the standard gRPC health status of service.
// The empty service name denotes the server as a whole.
func (s *Server) SetServingStatus(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// GRPCServer returns the underlying server for service registration
func (s *Server) GRPCServer() *grpc.Server {
	return s.server
}

// Serve blocks serving on lis
func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// StartAsync listens on the configured address and serves in the background
func (s *Server) StartAsync() error {
	addr := s.config.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("gRPC server stopped", "addr", addr, "error", err)
		}
	}()
	return nil
}

// Stop marks every service NOT_SERVING and waits for pending calls
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// Shutdown is Stop bounded by ctx. Calls still running when ctx ends are
// cancelled.
func (s *Server) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Graceful stop timed out, closing connections")
		s.server.Stop()
		<-done
	}
}
