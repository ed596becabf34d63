package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hhuzhang0517/genrtl-saas/common/id"
	"github.com/hhuzhang0517/genrtl-saas/common/logger"
	"github.com/hhuzhang0517/genrtl-saas/common/otel"
	"github.com/hhuzhang0517/genrtl-saas/core/config"
	"github.com/hhuzhang0517/genrtl-saas/core/db"
	"github.com/hhuzhang0517/genrtl-saas/internal/generation"
	"github.com/hhuzhang0517/genrtl-saas/internal/ledger"
	"github.com/hhuzhang0517/genrtl-saas/internal/pipeline"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
	"github.com/hhuzhang0517/genrtl-saas/internal/worker"
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

	slog.InfoContext(ctx, "genrtl worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer,
		"concurrency", cfg.Pipeline.Concurrency)

	// Use a different node ID than the server
	if err := id.Init(2); err != nil {
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

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
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
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	engine, err := generation.NewEngineFromConfig(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create generation engine", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Queries())
	orchestrator := pipeline.New(stores.Jobs(), engine, ledger.New(ledger.NewTxRunner(database)))

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    int64(cfg.Pipeline.Concurrency),
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, orchestrator, worker.NewRedisJobLocker(redisClient, cfg.Pipeline.LockTTL), worker.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		Concurrency: cfg.Pipeline.Concurrency,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   cfg.Pipeline.ReclaimMinIdle,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(runCtx)
	}()
	go reclaimer.Run(runCtx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop reclaimer first, then stop reading; Stop blocks until in-flight runs finish
	go func() {
		reclaimer.Stop()
		w.Stop()
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded, interrupting in-flight runs")
		cancelRun()
		<-errCh
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		flushCtx, flushCancel := context.WithTimeout(ctx, 5*time.Second)
		defer flushCancel()
		if err := telemetry.Shutdown(flushCtx); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ██████╗ ███████╗███╗   ██╗██████╗ ████████╗██╗
██╔════╝ ██╔════╝████╗  ██║██╔══██╗╚══██╔══╝██║
██║  ███╗█████╗  ██╔██╗ ██║██████╔╝   ██║   ██║
██║   ██║██╔══╝  ██║╚██╗██║██╔══██╗   ██║   ██║
╚██████╔╝███████╗██║ ╚████║██║  ██║   ██║   ███████╗
 ╚═════╝ ╚══════╝╚═╝  ╚═══╝╚═╝  ╚═╝   ╚═╝   ╚══════╝
`
