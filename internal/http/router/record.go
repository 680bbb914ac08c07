package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/http/handler"
)

func RecordRouter(router *gin.RouterGroup, handler *handler.RecordHandler) {
	router.GET("", handler.List)
	router.GET("/count", handler.Count)
	router.GET("/:key", handler.Get)
	router.DELETE("/:key", handler.Delete)
}

func TraceRouter(router *gin.RouterGroup, handler *handler.TraceHandler) {
	router.GET("/stats", handler.Stats)
	router.GET("/:key/journey", handler.Journey)
}
