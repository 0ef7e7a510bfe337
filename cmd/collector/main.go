package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/screwyprof/hnttax/cmd/collector/config"
	"github.com/screwyprof/hnttax/pkg/helium"
	"github.com/screwyprof/hnttax/pkg/logger"
	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/rewards/cache/rediscache"
)

func main() {
	cfg := config.New()

	// stdout carries the CSV
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
		Output:           os.Stderr,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Collection failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(sigCtx, cfg.Timeout)
	defer cancel()

	client := helium.NewClient(&http.Client{Timeout: cfg.Helium.HttpClientTimeout}, cfg.Helium.ClientConfig(),
		helium.WithLogger(log),
	)

	priceOpts := []rewards.PriceOption{
		rewards.WithMaxLookback(cfg.Helium.MaxLookback),
		rewards.WithPriceLogger(log),
	}
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		priceOpts = append(priceOpts, rewards.WithPriceCache(rediscache.New(rdb, cfg.Redis.Prefix)))
	}

	collector := rewards.NewCollector(client, rewards.NewPriceResolver(client, priceOpts...),
		rewards.WithConcurrency(cfg.Helium.Concurrency),
		rewards.WithLogger(log),
	)

	log.InfoContext(ctx, "Collecting rewards", slog.String("wallet", cfg.Wallet), slog.Int("year", cfg.Year))
	set, err := collector.CollectRewards(ctx, cfg.Wallet, cfg.Year)
	if err != nil {
		return err
	}

	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := rewards.WriteCSV(out, set); err != nil {
		return err
	}

	log.InfoContext(ctx, "Rewards collected",
		slog.String("wallet", set.Wallet),
		slog.Int("records", len(set.Records)),
		slog.String("hnt", set.TotalHNT().String()),
		slog.String("income", set.Income.StringFixed(rewards.IncomePrecision)),
	)
	return nil
}
