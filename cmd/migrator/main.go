package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/screwyprof/hnttax/migrator"
	"github.com/screwyprof/hnttax/migrator/config"
	"github.com/screwyprof/hnttax/pkg/logger"
	"github.com/screwyprof/hnttax/pkg/pgxdb"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	log.Info("Starting database migrator service",
		slog.String("migrationsDir", cfg.MigrationsDir),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Cancels on SIGINT/SIGTERM or when the timeout elapses
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	log.Info("Applying database migrations")
	if err := migrator.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
		log.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Database migrations applied successfully")

	if cfg.EnqueueWallet != "" {
		id, err := migrator.EnqueueRequest(ctx, db, cfg.EnqueueWallet, cfg.EnqueueYear, cfg.EnqueueSingleState)
		if err != nil {
			log.Error("Failed to enqueue reward request", slog.Any("error", err))
			os.Exit(1)
		}
		log.Info("Reward request enqueued",
			slog.Int64("requestID", id),
			slog.String("wallet", cfg.EnqueueWallet),
			slog.Int("year", cfg.EnqueueYear),
		)
	}

	log.Info("Database migrator completed successfully")
}
