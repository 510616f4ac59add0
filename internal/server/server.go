// Package server provides the inspection HTTP server: it answers every
// request with the attributes the resolvers derive from it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/greencloud/reqattr/internal/attribute"
	"github.com/greencloud/reqattr/internal/config"
	"github.com/greencloud/reqattr/internal/health"
	"github.com/greencloud/reqattr/internal/middleware"
	"github.com/greencloud/reqattr/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Server is the inspection HTTP server.
type Server struct {
	engine     *gin.Engine
	handler    http.Handler
	httpServer *http.Server
	resolver   *attribute.Resolver
	logger     observability.Logger
	metrics    *observability.Metrics
	health     *health.Checker
	config     *config.Config
	mu         sync.RWMutex
	running    bool

	includeHeaders atomic.Bool
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithHealthChecker sets the checker behind /healthz and /readyz.
func WithHealthChecker(checker *health.Checker) Option {
	return func(s *Server) {
		s.health = checker
	}
}

// New creates a Server. A nil logger discards logs and nil metrics
// disables recording.
func New(
	cfg *config.Config,
	resolver *attribute.Resolver,
	logger observability.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:   gin.New(),
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.NewChecker("")
	}
	s.health.RegisterCheck("listener", s.listenerCheck)
	s.includeHeaders.Store(cfg.Inspect.IncludeHeaders)

	s.registerRoutes()

	s.handler = middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.RequestContext(),
		middleware.RewriteURI(middleware.HeaderRewriteURI),
		middleware.Tracing(resolver),
		middleware.Logging(logger, resolver, metrics),
		middleware.BodyLimit(cfg.Server.MaxBodyBytes, logger),
	)(s.engine)

	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/readyz", s.handleReady)
	s.engine.Any("/inspect", s.handleInspect)
	s.engine.Any("/inspect/resolve/:name", s.handleResolve)

	if s.config.Metrics.Enabled && s.metrics != nil {
		s.engine.GET(s.config.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the server's handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetIncludeHeaders toggles header snapshots in inspection responses.
func (s *Server) SetIncludeHeaders(include bool) {
	s.includeHeaders.Store(include)
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until Stop is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server already running")
	}
	// Stop may have run before Serve got here.
	if ctx.Err() != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.Server.ReadTimeout.Duration(),
		WriteTimeout: s.config.Server.WriteTimeout.Duration(),
		IdleTimeout:  s.config.Server.IdleTimeout.Duration(),
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", ln.Addr().String()),
		observability.Duration("readTimeout", s.config.Server.ReadTimeout.Duration()),
		observability.Duration("writeTimeout", s.config.Server.WriteTimeout.Duration()),
	)

	err := s.httpServer.Serve(ln)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpServer
	running := s.running
	s.mu.RUnlock()

	if !running || srv == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) listenerCheck() health.Check {
	if s.IsRunning() {
		return health.Check{Status: health.StatusHealthy}
	}
	return health.Check{Status: health.StatusUnhealthy, Message: "not serving"}
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
