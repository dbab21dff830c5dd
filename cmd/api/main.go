package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sethvargo/go-envconfig"

	"github.com/Papyszoo/Modelibr-sub005/internal/asset"
	"github.com/Papyszoo/Modelibr-sub005/internal/dedup"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/job"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/notify"
	"github.com/Papyszoo/Modelibr-sub005/internal/storage/postgres"
	"github.com/Papyszoo/Modelibr-sub005/middleware"
)

type apiConfig struct {
	Addr         string `env:"API_ADDR,default=:8080"`
	LogMode      string `env:"APP_LOG_MODE,default=dev"`
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL,default=notifications"`
}

func main() {
	ctx := context.Background()

	var cfg apiConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatal("Failed to load config:", err)
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

	if err := postgres.RunMigrations(db); err != nil {
		appLog.Fatal("migrations failed", "error", err)
	}

	jobStore := postgres.NewJobStore(db)
	modelRepo := postgres.NewModelRepository(db)
	batchRepo := postgres.NewBatchUploadRepository(db)

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

	jobService := job.NewJobService(jobStore, modelRepo, dispatcher, appLog)
	assetService := asset.NewService(modelRepo, batchRepo, dispatcher, appLog)
	dedupEngine := dedup.NewEngine(modelRepo, batchRepo, jobStore, dispatcher, appLog)

	jobService.RegisterHandlers(dispatcher)
	dedupEngine.RegisterHandlers(dispatcher)
	notify.RegisterHandlers(dispatcher, notifier, appLog)

	jobHandler := job.NewJobHandler(jobService)
	assetHandler := asset.NewHandler(assetService)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.ErrorHandler())

	r.POST("/models", assetHandler.Create)
	r.POST("/models/:id/metadata", assetHandler.Metadata)

	r.GET("/jobs", jobHandler.List)
	r.GET("/jobs/:id", jobHandler.Get)
	r.GET("/jobs/:id/events", jobHandler.Events)
	r.POST("/jobs/:id/reset", jobHandler.Reset)

	appLog.Info("api listening", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
