package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/config"
	"github.com/dnsforyou/idgw/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions.
var ginModeOnce sync.Once

// Server hosts the gateway's REST API on a gin engine.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	config     config.ServerConfig
	logger     observability.Logger

	mu      sync.RWMutex
	running bool
}

// NewServer creates the HTTP server and registers the router's routes on a
// fresh gin engine.
func NewServer(cfg config.ServerConfig, router *Router, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	router.Register(engine)

	return &Server{
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the listener. It blocks until the server is shut down or fails.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout.Duration(),
		WriteTimeout: s.config.WriteTimeout.Duration(),
		IdleTimeout:  s.config.IdleTimeout.Duration(),
	}

	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", s.config.Address),
		observability.Duration("readTimeout", s.config.ReadTimeout.Duration()),
		observability.Duration("writeTimeout", s.config.WriteTimeout.Duration()),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop shuts the server down gracefully, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
