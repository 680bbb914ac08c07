package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/service"
)

const defaultStatsWindow = 24 * time.Hour

type TraceHandler struct {
	service service.TraceService
	now     func() time.Time
}

func NewTraceHandler(service service.TraceService) *TraceHandler {
	return &TraceHandler{service: service, now: time.Now}
}

func (h *TraceHandler) Journey(c *gin.Context) {
	key := c.Param("key")
	events, err := h.service.Journey(c.Request.Context(), key)
	if err != nil {
		respondError(c, err, "load journey")
		return
	}
	if events == nil {
		events = []model.TraceEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"correlation_key": key, "events": events})
}

// Stats takes a Go duration in ?window=, defaulting to one day.
func (h *TraceHandler) Stats(c *gin.Context) {
	window := defaultStatsWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window"})
			return
		}
		window = d
	}

	stats, err := h.service.Stats(c.Request.Context(), h.now().Add(-window))
	if err != nil {
		respondError(c, err, "load trace stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
