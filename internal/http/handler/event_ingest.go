package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/herald/internal/http/dto"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/service"
)

type EventIngestHandler struct {
	service     service.EventIngestService
	traceHeader string
}

func NewEventIngestHandler(service service.EventIngestService, traceHeader string) *EventIngestHandler {
	return &EventIngestHandler{service: service, traceHeader: traceHeader}
}

// Ingest queues an event, or runs it inline when ?sync=true.
func (h *EventIngestHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid ingest request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sync, _ := strconv.ParseBool(c.Query("sync"))
	params := service.IngestParams{Event: req.ToModel(), Sync: sync}

	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
		}
	}
	if traceID != "" {
		params.TraceID = &traceID
	}

	result, err := h.service.Ingest(ctx, params)
	if err != nil {
		if errors.Is(err, pipeline.ErrClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
			return
		}
		respondError(c, err, "ingest event")
		return
	}

	resp := dto.IngestEventResponse{CorrelationKey: result.CorrelationKey, Enqueued: result.Enqueued}
	if result.Result != nil {
		r := dto.ResultFrom(*result.Result)
		resp.Result = &r
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}
