package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/job"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/notify"
	"github.com/Papyszoo/Modelibr-sub005/internal/pool"
	"github.com/Papyszoo/Modelibr-sub005/internal/storage/postgres"
	"github.com/Papyszoo/Modelibr-sub005/internal/worker"
)

type workerConfig struct {
	MaxWorkers    int           `env:"MAX_WORKERS,default=10"`
	RendererURL   string        `env:"RENDERER_URL,default=http://renderer:8090"`
	RenderTimeout time.Duration `env:"RENDER_TIMEOUT,default=5m"`
	LogMode       string        `env:"APP_LOG_MODE,default=dev"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisChannel  string        `env:"REDIS_CHANNEL,default=notifications"`
}

func main() {
	ctx := context.Background()

	var cfg workerConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer appLog.Sync()

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		appLog.Fatal("failed to load db config", "error", err)
	}

	db, err := postgres.ConnectDB(ctx, dbCfg, appLog)
	if err != nil {
		appLog.Fatal("database connection failed", "error", err)
	}

	jobStore := postgres.NewJobStore(db)
	modelRepo := postgres.NewModelRepository(db)

	dispatcher := events.NewDispatcher(appLog)

	var notifier notify.Service
	if cfg.RedisAddr != "" {
		redisNotifier, err := notify.NewRedisNotifier(cfg.RedisAddr, cfg.RedisChannel, appLog)
		if err != nil {
			appLog.Fatal("redis notifier failed", "error", err)
		}
		defer redisNotifier.Close()
		notifier = redisNotifier
	} else {
		notifier = notify.NewLogNotifier(appLog)
	}
	notify.RegisterHandlers(dispatcher, notifier, appLog)

	jobService := job.NewJobService(jobStore, modelRepo, dispatcher, appLog)
	renderer := worker.NewHTTPRenderer(cfg.RendererURL, cfg.RenderTimeout)

	workerPool := pool.NewWorkerPool(cfg.MaxWorkers, jobService, jobStore, renderer, appLog)

	workerPool.Start()
	appLog.Info("worker pool active", "workers", cfg.MaxWorkers, "renderer", cfg.RendererURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	workerPool.Stop()
	appLog.Info("shutdown complete")
}
