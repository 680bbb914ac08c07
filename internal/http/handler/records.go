package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/service"
)

type RecordHandler struct {
	service service.RecordService
}

func NewRecordHandler(service service.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

func (h *RecordHandler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err, "get record")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List accepts source, type, from, to (RFC 3339) and limit.
func (h *RecordHandler) List(c *gin.Context) {
	q := service.RecordQuery{
		Source: c.Query("source"),
		Type:   model.SemanticType(c.Query("type")),
	}
	for name, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": expected RFC 3339"})
			return
		}
		*dst = &t
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		q.Limit = int32(n)
	}

	records, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "list records")
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *RecordHandler) Count(c *gin.Context) {
	n, err := h.service.Count(c.Request.Context())
	if err != nil {
		respondError(c, err, "count records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, err, "delete record")
		return
	}
	c.Status(http.StatusNoContent)
}
