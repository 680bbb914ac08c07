package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/service"
)

type IntegrationHandler struct {
	service service.IntegrationService
}

func NewIntegrationHandler(service service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{service: service}
}

func (h *IntegrationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.service.Status(c.Request.Context())})
}

// Authorize returns the provider's consent URL; ?redirect=true sends the
// browser there directly.
func (h *IntegrationHandler) Authorize(c *gin.Context) {
	url, err := h.service.AuthURL(c.Request.Context(), model.Provider(c.Param("provider")))
	if err != nil {
		respondError(c, err, "start authorization")
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": url})
}

func (h *IntegrationHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if errParam := c.Query("error"); errParam != "" {
		slog.WarnContext(ctx, "provider denied authorization", "error", errParam)
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization denied: " + errParam})
		return
	}

	p, err := h.service.Callback(ctx, c.Query("state"), c.Query("code"))
	switch {
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExchangeFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "provider": p})
	case err != nil:
		respondError(c, err, "complete authorization")
	default:
		c.JSON(http.StatusOK, gin.H{"provider": p, "connected": true})
	}
}

func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), model.Provider(c.Param("provider"))); err != nil {
		respondError(c, err, "disconnect provider")
		return
	}
	c.Status(http.StatusNoContent)
}
