package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/herald/common/id"
	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/common/otel"
	"basegraph.app/herald/core/config"
	"basegraph.app/herald/core/db"
	"basegraph.app/herald/internal/app"
	"basegraph.app/herald/internal/poller"
	"basegraph.app/herald/internal/queue"
	"basegraph.app/herald/internal/store"
	"basegraph.app/herald/internal/worker"
)

const (
	resultStreamMaxLen = 10_000
	retentionInterval  = time.Hour
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "herald worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.Group,
		"consumer_name", cfg.Queue.Consumer)

	// distinct node id from the server
	ids, err := id.NewGenerator(2)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
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

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	results := queue.NewResultPublisher(redisClient, cfg.Queue.ResultStream, resultStreamMaxLen)
	go results.Forward(runCtx, rt.Engine.Subscribe())

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.EventStream,
		Group:        cfg.Queue.Group,
		Consumer:     cfg.Queue.Consumer,
		DLQStream:    cfg.Queue.DLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	commands := queue.NewCommandPublisher(redisClient, cfg.Queue.CommandStream)

	w := worker.New(consumer, rt.Engine, commands, worker.Config{MaxAttempts: 3})

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:    cfg.Queue.EventStream,
		Group:     cfg.Queue.Group,
		Consumer:  cfg.Queue.Consumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	// Start from now so a restart does not replay the whole unread backlog.
	p := poller.New(rt.Engine, rt.PollConnectors(),
		poller.WithRecorder(rt.Traces),
		poller.WithCursor(time.Now()))
	scheduler := poller.NewScheduler(p, poller.SchedulerConfig{
		Interval:       cfg.Sync.Interval,
		MaxElapsedTime: cfg.Sync.MaxElapsedTime,
	})

	retention := newRetention(rt.Traces, cfg.Trace.Retention)

	errCh := make(chan error, 5)
	go func() {
		errCh <- w.Run(runCtx)
	}()
	go func() {
		reclaimer.Run(runCtx)
		errCh <- nil
	}()
	go func() {
		errCh <- scheduler.Run(runCtx)
	}()
	go func() {
		retention.Run(runCtx, retentionInterval)
		errCh <- nil
	}()
	// connect and disconnect happen in the server
	go func() {
		rt.Vault.Sync(runCtx, cfg.Credential.RefreshInterval)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running",
		"providers", rt.Registry.Providers(),
		"sync_interval", cfg.Sync.Interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop intake first, then let in-flight pipeline runs finish.
	scheduler.Stop()
	reclaimer.Stop()
	w.Stop()
	cancelRun()

drain:
	for range 5 {
		select {
		case <-shutdownCtx.Done():
			slog.WarnContext(ctx, "shutdown timeout exceeded")
			break drain
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
			}
		}
	}

	if err := rt.Close(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "pipeline shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 _                     _     _
| |__   ___ _ __ __ _| | __| |
| '_ \ / _ \ '__/ _' | |/ _' |
| | | |  __/ | | (_| | | (_| |
|_| |_|\___|_|  \__,_|_|\__,_|  worker
`
