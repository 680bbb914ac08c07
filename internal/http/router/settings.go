package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/http/handler"
)

func SettingsRouter(router *gin.RouterGroup, handler *handler.SettingsHandler) {
	router.GET("", handler.List)
	router.GET("/:key", handler.Get)
	router.PUT("/:key", handler.Put)
	router.DELETE("/:key", handler.Delete)
	router.GET("/:key/effective", handler.Effective)
}
