package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"irailjourneys/internal/config"
	"irailjourneys/internal/ingestor"
	"irailjourneys/internal/journey"
	"irailjourneys/internal/sink"
	"irailjourneys/pkg/archive"
	"irailjourneys/pkg/irailapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting journey reconstruction",
		"log_level", cfg.LogLevel.String(),
		"archive_dir", cfg.ArchiveDir,
		"archive_fetch", cfg.ArchiveFetch,
		"output_dir", cfg.OutputDir,
		"redis_enabled", cfg.RedisEnabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ArchiveFetch {
		from, err := cfg.ArchiveStart()
		if err != nil {
			logger.Error("invalid archive start date", "error", err)
			os.Exit(1)
		}
		downloader := archive.NewDownloader(cfg.ArchiveBaseURL, cfg.ArchiveDir, cfg.ArchiveTimeout, logger)
		failed, err := downloader.DownloadRange(ctx, from, cfg.ArchiveDays)
		if err != nil {
			logger.Error("archive download interrupted", "error", err)
			os.Exit(1)
		}
		logger.Info("unpacking done", "days", cfg.ArchiveDays, "failed_days", failed)
	}

	fileBackend, err := sink.NewFileBackend(cfg.OutputDir)
	if err != nil {
		logger.Error("failed to prepare output", "error", err)
		os.Exit(1)
	}
	backends := []sink.Backend{fileBackend}

	runID := sink.NewRunID()

	if cfg.RedisEnabled {
		redisBackend, err := sink.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, runID, cfg.RedisTTL, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisBackend.Close()
		backends = append(backends, redisBackend)
	}
	writer := sink.NewWriter(runID, logger, backends...)

	client := irailapi.New(cfg.VehicleAPIURL, irailapi.Options{
		Timeout:   cfg.VehicleTimeout,
		RateLimit: cfg.VehicleRateLimit,
		RateBurst: cfg.VehicleRateBurst,
	})
	reconstructor := journey.New(client, cfg.LegWorkers, logger)
	pipeline := ingestor.New(cfg.ArchiveDir, reconstructor, writer, cfg.PipelineWorkers, logger)

	stats, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("pipeline stopped early", "error", err, "journeys", stats.Journeys)
		return
	}

	logger.Info("analytics complete", "run_id", writer.RunID(), "journeys", stats.Journeys, "failed", stats.Failed, "canceled", stats.Canceled)
}
