package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Purav30803/nds-client/internal/models"
	"github.com/Purav30803/nds-client/internal/presentation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Status       models.RunStatus      `json:"status"`
	Connectivity string                `json:"connectivity"`
	Controls     presentation.Controls `json:"controls"`
	Cycle        uint64                `json:"cycle"`
}

type FeedResponse struct {
	Feed   models.FeedKind `json:"feed"`
	Total  int             `json:"total"`
	Events []models.Event  `json:"events"`
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.statusResponse())
}

func (s *Server) postStart(c *gin.Context) {
	c.Set(ctxCommand, models.CommandStart)
	s.controller.RequestStart(c.Request.Context())
	c.JSON(http.StatusOK, s.statusResponse())
}

func (s *Server) postStop(c *gin.Context) {
	c.Set(ctxCommand, models.CommandStop)
	s.controller.RequestStop(c.Request.Context())
	c.JSON(http.StatusOK, s.statusResponse())
}

// statusResponse reads the run status from the controller rather than the
// snapshot so a request sees its own transition.
func (s *Server) statusResponse() StatusResponse {
	snap := s.dashboard.Snapshot()
	snap.Status = s.controller.Status()

	page := presentation.Render(snap, models.ViewOverview)
	return StatusResponse{
		Status:       snap.Status,
		Connectivity: page.Status.Connectivity,
		Controls:     page.Controls,
		Cycle:        snap.Cycle,
	}
}

func (s *Server) getView(c *gin.Context) {
	view, err := models.ParseView(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_view",
			Message: err.Error(),
		})
		return
	}
	c.Set(ctxView, view)

	c.JSON(http.StatusOK, presentation.Render(s.dashboard.Snapshot(), view))
}

func (s *Server) getFeed(c *gin.Context) {
	kind, ok := models.ParseFeedKind(c.Param("feed"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_feed",
			Message: "unknown feed: " + c.Param("feed"),
		})
		return
	}
	c.Set(ctxFeed, kind)

	events := s.dashboard.Snapshot().Feeds.Get(kind)
	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, FeedResponse{
		Feed:   kind,
		Total:  len(events),
		Events: events,
	})
}
