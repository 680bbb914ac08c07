package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/herald/internal/http/handler"
)

func EventRouter(router *gin.RouterGroup, handler *handler.EventIngestHandler) {
	router.POST("", handler.Ingest)
}

func ResultRouter(router *gin.RouterGroup, handler *handler.ResultStreamHandler) {
	router.GET("/stream", handler.Stream)
}
