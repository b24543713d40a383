package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gompdf/gomprova/internal/export"
	"github.com/gompdf/gomprova/internal/logger"
	"github.com/gompdf/gomprova/internal/metrics"
	"github.com/gompdf/gomprova/internal/workspace"
)

// Deps are the collaborators of the HTTP surface
type Deps struct {
	Session  *workspace.Session
	Capturer export.PageCapturer
	Pipeline *export.Pipeline
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
	// Mode is the gin mode: debug, release or test
	Mode string
}

// Server serves the preview and export API
type Server struct {
	Engine *gin.Engine
	deps   Deps
	log    *logger.Logger
	http   *http.Server
}

// New builds the router
func New(deps Deps) *Server {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	if deps.Pipeline == nil {
		var obs export.Observer
		if deps.Metrics != nil {
			obs = deps.Metrics
		}
		deps.Pipeline = export.NewPipeline(deps.Logger, obs)
	}
	s := &Server{deps: deps, log: logger.OrNop(deps.Logger).With("component", "server")}
	s.Engine = s.router()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler { return s.Engine }

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.Engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return s.http.Shutdown(shutdownCtx)
}

// requestLogger logs every request at a level derived from its status
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Debug("HTTP request", fields...)
		}
	}
}
