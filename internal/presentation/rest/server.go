package rest

import (
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"
)

// Server wraps a fasthttp server serving a Router.
type Server struct {
	srv    *fasthttp.Server
	logger *slog.Logger
}

// NewServer creates the HTTP server.
func NewServer(router *Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &fasthttp.Server{
			Handler:            router.Handle,
			Name:               ServiceName,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			IdleTimeout:        60 * time.Second,
			MaxRequestBodySize: 1 << 20,
		},
		logger: logger,
	}
}

// ListenAndServe serves HTTP on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.srv.ListenAndServe(addr)
}

// Shutdown stops accepting connections and waits for open requests.
func (s *Server) Shutdown() error {
	s.logger.Info("HTTP server shutting down")
	return s.srv.Shutdown()
}
