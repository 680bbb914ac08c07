package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/http/dto"
	"basegraph.app/herald/internal/pipeline"
)

// Subscriber is implemented by *pipeline.Engine.
type Subscriber interface {
	Subscribe() *pipeline.Subscription
	Unsubscribe(sub *pipeline.Subscription)
}

type ResultStreamHandler struct {
	engine    Subscriber
	keepAlive time.Duration
}

func NewResultStreamHandler(engine Subscriber) *ResultStreamHandler {
	return &ResultStreamHandler{engine: engine, keepAlive: 25 * time.Second}
}

// Stream relays results of events processed by this server as SSE.
func (h *ResultStreamHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	sub := h.engine.Subscribe()
	defer h.engine.Unsubscribe(sub)

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	sseWrite(c.Writer, "ping", "ready")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			sseWrite(c.Writer, "ping", time.Now().UTC().Format(time.RFC3339Nano))
			flusher.Flush()
		case r, ok := <-sub.C:
			if !ok {
				return
			}
			sseWrite(c.Writer, "result", dto.ResultFrom(r))
			flusher.Flush()
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

func sseWrite(w http.ResponseWriter, event string, data any) {
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(marshalPayload(data), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	if s, ok := data.(string); ok {
		return s
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}
