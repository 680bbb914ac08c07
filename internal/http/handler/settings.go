package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/http/dto"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/service"
)

type SettingsHandler struct {
	service service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) List(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "list settings")
		return
	}
	if all == nil {
		all = []model.StoredSettings{}
	}
	c.JSON(http.StatusOK, gin.H{"settings": all})
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err, "get settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) Put(c *gin.Context) {
	var req model.SourceSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stored, err := h.service.Put(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		respondError(c, err, "save settings")
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (h *SettingsHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, err, "delete settings")
		return
	}
	c.Status(http.StatusNoContent)
}

// Effective shows the resolved settings the pipeline would use for a package.
func (h *SettingsHandler) Effective(c *gin.Context) {
	eff, err := h.service.Effective(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err, "resolve settings")
		return
	}
	c.JSON(http.StatusOK, dto.EffectiveFrom(eff))
}
