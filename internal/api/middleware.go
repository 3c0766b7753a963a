package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Request context keys set by handlers so the request log names what was asked for.
const (
	ctxView    = "view"
	ctxFeed    = "feed"
	ctxCommand = "command"
)

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	if s.config.EnableCORS {
		s.router.Use(corsMiddleware())
	}
}

// requestLogger logs every API call with the view, feed or command it touched and
// the run status it left behind. Control commands are operator actions and log at
// info, server errors at warn, everything else at debug.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := log.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"route":      route,
			"latency_ms": time.Since(start).Milliseconds(),
		}
		for _, key := range []string{ctxView, ctxFeed, ctxCommand} {
			if v, ok := c.Get(key); ok {
				fields[key] = v
			}
		}
		if s.controller != nil {
			fields["run_status"] = s.controller.Status()
		}
		entry := log.WithFields(fields)
		_, isCommand := c.Get(ctxCommand)

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("Dashboard API request failed")
		case isCommand:
			entry.Info("Dashboard control request")
		default:
			entry.Debug("Dashboard API request")
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
