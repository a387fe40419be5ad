package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/pipegraph/component"
	"github.com/kbukum/pipegraph/config"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
	"github.com/kbukum/pipegraph/security"
)

const componentName = "http-server"

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

var _ component.Component = (*Server)(nil)

// Server is a Gin HTTP server managed as a component.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *logger.Logger
	tls        security.TLSConfig

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server with the standard middleware applied.
func New(cfg config.ServerConfig) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logger.Get("server")
	engine := gin.New()
	engine.Use(Recovery(log), RequestID(), RequestLogger(log))

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:        cfg.Addr,
			Handler:     h2c.NewHandler(engine, h2s),
			ReadTimeout: cfg.ReadTimeout,
			// Zero: SSE streams are long-lived. ServeSSE clears per-request
			// deadlines as well.
			WriteTimeout: cfg.WriteTimeout,
		},
		engine: engine,
		log:    log,
		tls:    cfg.TLS,
	}
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Name() string { return componentName }

// Start binds the port and serves in the background. With a TLS certificate
// configured it serves HTTPS with h2 negotiated over ALPN.
func (s *Server) Start(_ context.Context) error {
	tlsCfg, err := s.tls.Build()
	if err != nil {
		return fmt.Errorf("server tls: %w", err)
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	scheme := "http"
	serve := func() error { return s.httpServer.Serve(ln) }
	if tlsCfg != nil {
		scheme = "https"
		s.httpServer.TLSConfig = tlsCfg
		serve = func() error { return s.httpServer.ServeTLS(ln, "", "") }
	}

	go func() {
		if err := serve(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields(
		"addr", ln.Addr().String(),
		"scheme", scheme,
		"mtls", s.tls.MutualTLS(),
	))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

func (s *Server) Health(_ context.Context) observability.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return observability.Health{Name: componentName, Status: observability.HealthStatusDown, Message: "not listening"}
	}
	return observability.Health{Name: componentName, Status: observability.HealthStatusUp, Message: s.listener.Addr().String()}
}
