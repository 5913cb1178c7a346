// Package httpapi exposes zone detection and health checks over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cryptoPulseBot/internal/ports"
)

// Pinger reports whether the market data upstream is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires the API routes.
func NewRouter(zones ZoneProvider, pinger Pinger, logger ports.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", Health(pinger, logger))
	r.HEAD("/healthz", Health(pinger, logger))

	v1 := r.Group("/api/v1")
	v1.GET("/zones/:symbol", NewZonesHandler(zones, logger).GetZones)
	return r
}

// Health returns a handler reporting upstream reachability.
func Health(pinger Pinger, logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		if pinger != nil {
			if err := pinger.Ping(c.Request.Context()); err != nil {
				logger.Warn(c.Request.Context(), "Health check degraded", map[string]interface{}{"error": err.Error()})
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		if c.Request.Method == http.MethodHead {
			c.Status(http.StatusOK)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func requestLogger(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// Server runs the router until its context is canceled.
type Server struct {
	srv    *http.Server
	logger ports.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, logger ports.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP API listening", map[string]interface{}{"addr": s.srv.Addr})
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http api shutdown: %w", err)
		}
		s.logger.Info(context.Background(), "HTTP API stopped")
		return nil
	}
}
