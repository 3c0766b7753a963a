// Package api serves the dashboard over HTTP: a JSON API, a WebSocket that pushes
// rendered pages, Prometheus metrics and the embedded browser UI.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/models"
)

// Dashboard is the read side of the view model.
type Dashboard interface {
	Snapshot() models.Snapshot
	Subscribe() (<-chan models.Snapshot, func())
}

// Controller issues start/stop requests. Both calls return the status right after
// the transition; the backend command completes in the background.
type Controller interface {
	Status() models.RunStatus
	RequestStart(ctx context.Context) models.RunStatus
	RequestStop(ctx context.Context) models.RunStatus
}

type Server struct {
	config     *Config
	dashboard  Dashboard
	controller Controller
	gatherer   prometheus.Gatherer
	httpServer *http.Server
	router     *gin.Engine
}

// NewAPIServer builds the router. A nil gatherer disables /metrics.
func NewAPIServer(cfg *Config, dash Dashboard, ctrl Controller, gatherer prometheus.Gatherer) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:     cfg,
		dashboard:  dash,
		controller: ctrl,
		gatherer:   gatherer,
		router:     gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// ListenAndServe blocks until the server fails or Stop is called. A clean stop
// returns nil.
func (s *Server) ListenAndServe() error {
	log.Infof("Starting API server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting up to 10 seconds for
// in-flight requests. Hijacked WebSocket connections are not tracked by
// net/http; they end when their clients read an error.
func (s *Server) Stop() error {
	log.Info("Shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Errorf("API server forced to shutdown: %v", err)
		return err
	}

	log.Info("API server stopped gracefully")
	return nil
}

// Router is exposed so tests can drive requests without a listener.
func (s *Server) Router() *gin.Engine {
	return s.router
}
