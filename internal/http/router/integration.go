package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/http/handler"
)

func IntegrationRouter(router *gin.RouterGroup, handler *handler.IntegrationHandler) {
	router.GET("", handler.Status)
	router.GET("/:provider/authorize", handler.Authorize)
	router.DELETE("/:provider", handler.Disconnect)
}
