package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/herald/common/id"
	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/common/otel"
	"basegraph.app/herald/core/config"
	"basegraph.app/herald/core/db"
	"basegraph.app/herald/internal/app"
	"basegraph.app/herald/internal/http/middleware"
	httprouter "basegraph.app/herald/internal/http/router"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/queue"
	"basegraph.app/herald/internal/service"
	"basegraph.app/herald/internal/store"
)

const resultStreamMaxLen = 10_000

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "herald server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	ids, err := id.NewGenerator(1)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.EventStream)

	stores := store.NewStores(database.Queries())

	rt, err := app.New(ctx, cfg, stores, ids)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build pipeline runtime", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "pipeline ready",
		"handlers", rt.Engine.HandlerNames(),
		"providers", rt.Registry.Providers())

	// Synchronous ingests run in this process; mirror their results onto the
	// shared result stream alongside the worker's.
	forwardCtx, stopForward := context.WithCancel(ctx)
	results := queue.NewResultPublisher(redisClient, cfg.Queue.ResultStream, resultStreamMaxLen)
	go results.Forward(forwardCtx, rt.Engine.Subscribe())
	// other server replicas may connect or disconnect providers
	go rt.Vault.Sync(forwardCtx, cfg.Credential.RefreshInterval)

	producer := queue.NewRedisProducer(redisClient, cfg.Queue.EventStream, slog.Default())
	defer producer.Close()

	services := service.NewServices(service.Deps{
		Stores:      stores,
		TxRunner:    service.NewTxRunner(database),
		Engine:      rt.Engine,
		Producer:    producer,
		Traces:      rt.Traces,
		Registry:    rt.Registry,
		States:      service.NewRedisStateStore(redisClient),
		Resolver:    rt.Resolver,
		RedirectURI: cfg.Sync.RedirectURI,
		Logger:      slog.Default(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, rt.Engine, map[string]httprouter.Pinger{
		"postgres": database,
		"redis":    redisPinger{redisClient},
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// no WriteTimeout: /api/v1/results/stream is long-lived
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if err := rt.Close(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "pipeline shutdown error", "error", err)
	}
	stopForward()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, engine *pipeline.Engine, checks map[string]httprouter.Pinger) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		TraceHeaderName: cfg.Queue.TraceHeaderName,
		AdminAPIKey:     cfg.AdminAPIKey,
		Engine:          engine,
		Checks:          checks,
	})

	return router
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

const banner = `
 _                     _     _
| |__   ___ _ __ __ _| | __| |
| '_ \ / _ \ '__/ _' | |/ _' |
| | | |  __/ | | (_| | | (_| |
|_| |_|\___|_|  \__,_|_|\__,_|  server
`
