package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vidsmith/genmedia-ms-go/internal/config"
	"github.com/vidsmith/genmedia-ms-go/internal/fetch"
	"github.com/vidsmith/genmedia-ms-go/internal/ffmpeg"
	workerHandler "github.com/vidsmith/genmedia-ms-go/internal/handler/worker"
	"github.com/vidsmith/genmedia-ms-go/internal/jobstore"
	"github.com/vidsmith/genmedia-ms-go/internal/logger"
	"github.com/vidsmith/genmedia-ms-go/internal/pipeline"
	"github.com/vidsmith/genmedia-ms-go/internal/provider"
	"github.com/vidsmith/genmedia-ms-go/internal/storage"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
)

const (
	providerTimeout = 2 * time.Minute
	fetchTimeout    = 5 * time.Minute
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	store := jobstore.New(cfg.RedisAddr, cfg.RedisPassword)
	uploader := initUploader(cfg)

	gen := provider.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, providerTimeout)
	fetcher := fetch.New(cfg.GeminiAPIKey, fetchTimeout)
	post := ffmpeg.NewProcessor(cfg.FFmpegPath, ffmpeg.NewRunner(cfg.FFmpegTimeout))
	poller := pipeline.NewPoller(cfg.PollInterval, cfg.PollMaxWait)

	pipe := pipeline.New(gen, fetcher, post, uploader, store, poller)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeRunGeneration, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseRunGenerationPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.RunGenerationHandler(ctx, p, pipe)
	})

	runWorker(ctx, mux, cfg)
}

func initUploader(cfg *config.Settings) *storage.Uploader {
	uploader, err := storage.NewUploader(cfg.MinioAccessKey, cfg.MinioSecretKey, storage.Config{
		Bucket:       cfg.StorageBucket,
		KeyPrefix:    cfg.StorageKeyPrefix,
		Endpoint:     cfg.MinioEndpoint,
		UseSSL:       cfg.MinioUseSSL,
		PathStyle:    cfg.StoragePathStyle,
		ServiceHost:  cfg.StorageServiceHost,
		PublicDomain: cfg.StoragePublicDomain,
		MaxRetries:   cfg.UploadMaxRetries,
	})
	if err != nil {
		logger.Errorf(context.Background(), "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}
	return uploader
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{Concurrency: 10})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// Give Asynq up to 30 sec to finish tasks
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown()       // stop accepting new tasks, finish in-flight
	<-shutdownCtx.Done() // either timeout or done

	logger.Info(ctx, "✅  Worker gracefully stopped")
}
