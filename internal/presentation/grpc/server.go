package grpc

import (
	"fmt"
	"log/slog"
	"net"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/logicalc/loancalc/pkg/auth"
	"github.com/logicalc/loancalc/pkg/observability"
	"github.com/logicalc/loancalc/pkg/tlsutil"
)

// healthMethods are reachable without a token.
var healthMethods = []string{
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/Watch",
}

// adminMethods lists the RPCs restricted to auth.RoleAdmin.
var adminMethods = map[string][]string{
	MethodImportRateTable: {auth.RoleAdmin},
}

// ServerConfig configures the gRPC server. A nil JWT disables authentication.
type ServerConfig struct {
	JWT        *auth.JWTService
	CertFile   string
	KeyFile    string
	Reflection bool
	Metrics    *observability.RPCMetrics
}

// Server wraps a gRPC server with the calculator handler registered.
type Server struct {
	gs     *grpclib.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer creates and configures the gRPC server.
func NewServer(handler CalculatorServiceServer, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var interceptors []grpclib.UnaryServerInterceptor
	if cfg.Metrics != nil {
		interceptors = append(interceptors, cfg.Metrics.UnaryServerInterceptor())
	}
	if cfg.JWT != nil {
		interceptors = append(interceptors,
			auth.UnaryAuthInterceptor(cfg.JWT, healthMethods),
			auth.RequireMethodRoles(adminMethods),
		)
	} else {
		logger.Warn("gRPC authentication disabled")
	}

	serverOpts := []grpclib.ServerOption{grpclib.ChainUnaryInterceptor(interceptors...)}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		creds, err := tlsutil.ServerTLSConfig(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpclib.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.CertFile)
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	gs := grpclib.NewServer(serverOpts...)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(gs, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	if cfg.Reflection {
		reflection.Register(gs)
	}

	RegisterCalculatorServiceServer(gs, handler)

	return &Server{
		gs:     gs,
		health: healthSrv,
		logger: logger,
	}, nil
}

// Serve starts the gRPC server on the specified address.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.gs.Serve(lis)
}

// GracefulStop marks the service as not serving and stops the server
// gracefully.
func (s *Server) GracefulStop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.gs.GracefulStop()
}
