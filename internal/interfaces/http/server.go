// Package http exposes registration sessions over a JSON API.
// This is a thin adapter layer that translates HTTP requests to session calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string
	MaxBodyBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		Mode:         gin.ReleaseMode,
		MaxBodyBytes: 8 << 20,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server around handlers
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.bodyLimitMiddleware())
}

// bodyLimitMiddleware caps request bodies; reads past the limit fail
func (s *Server) bodyLimitMiddleware() gin.HandlerFunc {
	limit := s.config.MaxBodyBytes
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/sessions", h.CreateSession)

		sessions := api.Group("/sessions/:id", h.loadSession)
		{
			sessions.GET("", h.GetSession)
			sessions.DELETE("", h.DeleteSession)
			sessions.PATCH("/fields", h.UpdateField)

			sessions.POST("/signature/strokes", h.DrawStrokes)
			sessions.POST("/signature", h.UploadSignature)
			sessions.DELETE("/signature", h.ClearSignature)

			sessions.POST("/review", h.Review)
			sessions.POST("/edit", h.Edit)

			sessions.POST("/draft", h.ComposeDraft)
			sessions.PUT("/draft", h.SetDraft)

			sessions.GET("/document.png", h.DocumentPNG)
			sessions.GET("/document.pdf", h.DocumentPDF)
			sessions.GET("/preview.png", h.PreviewPNG)

			sessions.GET("/providers", h.Providers)
			sessions.POST("/dispatch", h.Dispatch)
			sessions.POST("/dispatch/confirm", h.ConfirmDispatch)
		}

		api.GET("/downloads/:token", h.Download)

		api.GET("/submissions", h.ListSubmissions)
		api.GET("/submissions/roster.xlsx", h.Roster)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the server fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
