package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vidsmith/genmedia-ms-go/internal/config"
	"github.com/vidsmith/genmedia-ms-go/internal/ffmpeg"
	"github.com/vidsmith/genmedia-ms-go/internal/handler"
	"github.com/vidsmith/genmedia-ms-go/internal/handler/api"
	"github.com/vidsmith/genmedia-ms-go/internal/jobstore"
	"github.com/vidsmith/genmedia-ms-go/internal/logger"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	r := initRouter(ctx)

	store := jobstore.New(cfg.RedisAddr, cfg.RedisPassword)
	dispatcher := task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
	prober := ffmpeg.NewProcessor(cfg.FFmpegPath, ffmpeg.NewRunner(cfg.FFmpegTimeout))
	logger.Info(ctx, "✅  Redis job store enabled")

	r.Get("/healthz", api.HealthzHandler())
	r.Post("/generations", api.CreateGenerationHandler(store, dispatcher, prober))
	r.Get("/generations/{id}", api.GetGenerationHandler(store))

	listenRouter(ctx, r, cfg)
}

func initRouter(ctx context.Context) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.NotFound(handler.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")
}
