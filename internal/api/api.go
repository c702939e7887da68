// Package api wires the HTTP server of neurodash.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/auth"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/engine"
	"github.com/neurodash/neurodash/internal/metrics"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
	auth      *auth.Middleware
	started   time.Time
}

// New creates the server and registers all routes.
func New(cfg *config.Config, e *engine.Engine, tokens *auth.Manager) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}

	ginEngine := gin.New()
	ginEngine.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		metrics.GinMiddleware(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
	)

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		engine:    e,
		auth:      auth.NewMiddleware(tokens, cfg.Auth.CookieName, cfg.Auth.CookieSecure, cfg.Auth.EnforceOwnership),
		started:   time.Now(),
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until ctx is done and then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "listen", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}
