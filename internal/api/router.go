package api

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Purav30803/nds-client/web"
)

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(web.StaticFiles, "static")
	if err == nil {
		assets := http.FS(staticFS)
		s.router.GET("/", func(c *gin.Context) {
			c.FileFromFS("/", assets)
		})
		s.router.StaticFS("/static", assets)
	}

	s.router.GET("/ws", s.handleWebSocket)

	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.getStatus)
		v1.GET("/view", s.getView)
		v1.GET("/feeds/:feed", s.getFeed)

		control := v1.Group("/control")
		{
			control.POST("/start", s.postStart)
			control.POST("/stop", s.postStop)
		}
	}
}
