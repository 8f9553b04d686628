package main

import (
	"os"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/config"
	"github.com/noah-isme/backend-agua/internal/obs"
	"github.com/noah-isme/backend-agua/internal/tasks"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{"default": 1},
	})

	lowStock := &tasks.LowStockHandler{
		Email:      common.NopEmailSender{},
		AlertEmail: envOrDefault("LOW_STOCK_ALERT_EMAIL", ""),
		Log:        logger,
	}

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Run(tasks.NewServeMux(lowStock)); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
