package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/api"
	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/services"
	"redaction-worker-go/internal/worker"
)

func main() {
	var (
		port     = flag.Int("port", 0, "API port (overrides PORT env)")
		workerID = flag.String("worker-id", "", "Worker ID (overrides WORKER_ID env)")
	)
	flag.Parse()

	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	if *port != 0 {
		cfg.Port = *port
	}
	if *workerID != "" {
		cfg.WorkerID = *workerID
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("capture_source", cfg.CaptureSource).
		Msg("Starting redaction worker")

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	w := worker.New(cfg, container)
	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start worker")
	}

	server := api.NewServer(cfg, w, container)
	if err := server.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup API server")
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting API server")
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("API server forced to shutdown")
	}
	if err := w.Stop(); err != nil {
		log.Error().Err(err).Msg("Error stopping worker")
	}
	if err := container.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down services")
	}

	log.Info().Msg("Shutdown complete")
}
