package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/config"
	"github.com/Rech03/CES-sub001/internal/database"
	"github.com/Rech03/CES-sub001/internal/handler"
	"github.com/Rech03/CES-sub001/internal/logger"
	"github.com/Rech03/CES-sub001/internal/platform"
	"github.com/Rech03/CES-sub001/internal/router"
	"github.com/Rech03/CES-sub001/internal/session"
	"github.com/Rech03/CES-sub001/internal/validator"
	"github.com/Rech03/CES-sub001/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting attempt session server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Upstream Quiz Platform Client ─────────────────────────────────
	platformAPI := platform.NewClient(cfg.PlatformBaseURL, cfg.PlatformTimeout, log)

	// ─── Session Layer ─────────────────────────────────────────────────
	cache := session.NewStateCache(rdb, log)
	manager := session.NewManager(platformAPI, cache, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Gate:    handler.NewGateHandler(manager),
		Session: handler.NewSessionHandler(manager),
		WS:      handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	reaper := worker.NewReaperWorker(platformAPI, cache, manager, cfg.ReaperInterval, log)
	go reaper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the reaper and tear down live sessions. Their Redis state
	// stays behind so the reaper can finish them after a restart.
	workerCancel()
	manager.Shutdown()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
