package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/msto63/kinematics/internal/evaluator/service"
	coreGrpc "github.com/msto63/kinematics/pkg/core/grpc"
	"github.com/msto63/kinematics/pkg/core/health"
	"github.com/msto63/kinematics/pkg/core/logging"
	"github.com/msto63/kinematics/pkg/core/version"
)

// Config holds the listen addresses and HTTP timeouts
type Config struct {
	Host         string
	GRPCPort     int
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig listens on all interfaces, gRPC on 9300 and HTTP on 8300
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		GRPCPort:     9300,
		HTTPPort:     8300,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Server exposes one Service over gRPC and HTTP. The Service is owned by
// the caller and stays open after Stop.
type Server struct {
	grpc    *coreGrpc.Server
	http    *http.Server
	handler *Handler
	health  *health.Registry
	logger  *logging.Logger
	started time.Time
}

// New wires svc into both transports. Nothing listens until StartAsync.
func New(cfg Config, svc *service.Service) *Server {
	logger := logging.New("evaluator-server")

	registry := health.NewRegistry("evaluator", version.Evaluator)
	registry.Register(health.EngineCheck("engine"))
	if svc.HistoryEnabled() {
		registry.Register(health.PingCheck("store", false, svc.Ping))
	}
	handler := NewHandler(svc, registry)

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.GRPCPort
	grpcCfg.Logger = logging.New("evaluator-grpc")
	grpcServer := coreGrpc.NewServer(grpcCfg)
	RegisterEvaluatorServer(grpcServer.GRPCServer(), &evaluatorServer{service: svc})
	grpcServer.SetServingStatus(EvaluatorServiceName, true)

	return &Server{
		grpc: grpcServer,
		http: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.HTTPPort)),
			Handler:      accessLog(logger, handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		health:  registry,
		logger:  logger,
		started: time.Now(),
	}
}

// StartAsync binds both listeners and serves in the background. If the
// HTTP port cannot be bound the gRPC server is stopped again.
func (s *Server) StartAsync() error {
	if err := s.grpc.StartAsync(); err != nil {
		return err
	}
	lis, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		s.grpc.Stop()
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	go func() {
		if err := s.http.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", "error", err)
		}
	}()

	s.logger.Info("Evaluator listening", "http", s.http.Addr, "grpc_service", EvaluatorServiceName)
	return nil
}

// Stop drains both transports; ctx bounds the wait
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Evaluator stopping", "uptime", time.Since(s.started).Round(time.Second))
	s.grpc.SetServingStatus(EvaluatorServiceName, false)
	err := s.http.Shutdown(ctx)
	s.grpc.Shutdown(ctx)
	return err
}

// GRPC returns the gRPC server, e.g. to serve on an in-memory listener
func (s *Server) GRPC() *coreGrpc.Server { return s.grpc }

// Handler returns the HTTP API without the access log
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) HealthRegistry() *health.Registry { return s.health }

// accessLog writes one entry per request: debug for success, warn for
// client errors and error for server errors
func accessLog(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log := logger.Debug
		switch {
		case rec.status >= 500:
			log = logger.Error
		case rec.status >= 400:
			log = logger.Warn
		}
		log("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("connection cannot be hijacked")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
