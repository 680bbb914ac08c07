package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basegraph.app/herald/internal/http/handler"
	"basegraph.app/herald/internal/http/middleware"
	"basegraph.app/herald/internal/service"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	TraceHeaderName string
	AdminAPIKey     string
	Engine          handler.Subscriber
	Checks          map[string]Pinger
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", healthHandler(cfg.Checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	integrationHandler := handler.NewIntegrationHandler(services.Integrations())

	// Providers redirect the browser here, so it sits outside the admin group.
	router.GET("/api/v1/integrations/callback", integrationHandler.Callback)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAdminAPIKey(cfg.AdminAPIKey))
	{
		eventHandler := handler.NewEventIngestHandler(services.Ingest(), cfg.TraceHeaderName)
		EventRouter(v1.Group("/events"), eventHandler)

		if cfg.Engine != nil {
			streamHandler := handler.NewResultStreamHandler(cfg.Engine)
			ResultRouter(v1.Group("/results"), streamHandler)
		}

		recordHandler := handler.NewRecordHandler(services.Records())
		RecordRouter(v1.Group("/records"), recordHandler)

		traceHandler := handler.NewTraceHandler(services.Traces())
		TraceRouter(v1.Group("/traces"), traceHandler)

		settingsHandler := handler.NewSettingsHandler(services.Settings())
		SettingsRouter(v1.Group("/settings"), settingsHandler)

		IntegrationRouter(v1.Group("/integrations"), integrationHandler)
	}
}

func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{}
		healthy := true
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
				status[name] = "unavailable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
	}
}
