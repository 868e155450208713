// Package api exposes the monitoring engine over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	engine    Engine
	logger    *zap.Logger
	jwtSecret string
	router    *gin.Engine
}

type ServerOption func(*Server)

// WithJWTSecret guards the site routes with HS256 bearer tokens.
func WithJWTSecret(secret string) ServerOption {
	return func(s *Server) { s.jwtSecret = secret }
}

func NewServer(engine Engine, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{engine: engine, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/health", s.handleHealth)

	guard := func(c *gin.Context) { c.Next() }
	if s.jwtSecret != "" {
		guard = requireToken(s.jwtSecret)
	}

	sites := r.Group("/sites", guard)
	sites.GET("", s.handleList)
	sites.POST("", s.handleCreate)
	sites.POST("/batch", s.handleCreateBatch)
	sites.GET("/:id", s.handleGet)
	sites.PUT("/:id", s.handleUpdate)
	sites.DELETE("/:id", s.handleDelete)
	sites.POST("/:id/check", s.handleCheck)
	sites.GET("/:id/logs", s.handleLogs)

	// first dashboard routes, in its field names
	legacy := r.Group("", guard)
	legacy.GET("/websites", s.handleLegacyList)
	legacy.POST("/websites", s.handleLegacyCreate)
	legacy.PUT("/websites/:id", s.handleLegacyUpdate)
	legacy.DELETE("/websites/:id", s.handleLegacyDelete)
	legacy.POST("/check/:id", s.handleLegacyCheck)

	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down, giving
// in-flight requests up to grace to finish.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, grace)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener, grace time.Duration) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Listening on address", zap.String("addr", ln.Addr().String()))

	done := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}

	return <-done
}
