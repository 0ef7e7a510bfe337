package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/screwyprof/hnttax/pkg/helium"
	"github.com/screwyprof/hnttax/pkg/logger"
	"github.com/screwyprof/hnttax/pkg/metrics"
	"github.com/screwyprof/hnttax/pkg/pgxdb"
	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/rewards/cache/rediscache"
	"github.com/screwyprof/hnttax/rewards/config"
	"github.com/screwyprof/hnttax/rewards/store/pgxstore"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "HNT reward processor starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	db, err := pgxdb.NewConnectionWithConfig(ctx, cfg.DatabaseURL, cfg.Pool)
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	store, storeCloser := pgxstore.New(db)
	defer storeCloser()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	upstreamMetrics := metrics.NewUpstream(reg)
	processorMetrics := metrics.NewProcessor(reg)

	httpClient := &http.Client{Timeout: cfg.Helium.HttpClientTimeout}
	client := helium.NewClient(httpClient, cfg.Helium.ClientConfig(),
		helium.WithLogger(log),
		helium.WithMetrics(upstreamMetrics),
	)

	priceOpts := []rewards.PriceOption{
		rewards.WithMaxLookback(cfg.Helium.MaxLookback),
		rewards.WithPriceLogger(log),
	}
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.ErrorContext(ctx, "Failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rdb.Close()

		priceOpts = append(priceOpts, rewards.WithPriceCache(rediscache.New(rdb, cfg.Redis.Prefix)))
		log.InfoContext(ctx, "Using shared price cache", slog.String("addr", cfg.Redis.Addr))
	}

	collector := rewards.NewCollector(client, rewards.NewPriceResolver(client, priceOpts...),
		rewards.WithConcurrency(cfg.Helium.Concurrency),
		rewards.WithLogger(log),
	)

	service := rewards.NewService(collector, store,
		rewards.WithChunkSize(cfg.ChunkSize),
		rewards.WithPollInterval(cfg.PollInterval),
	)

	metricsServer := startMetricsServer(ctx, log, cfg.MetricsAddr, reg)

	log.InfoContext(ctx, "Starting reward request processor",
		slog.Uint64("chunkSize", cfg.ChunkSize),
		slog.Duration("pollInterval", cfg.PollInterval),
	)
	events, done := service.Start(ctx)

	subCloser := setupEventLogging(ctx, events, log, processorMetrics)
	defer subCloser()

	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Metrics server forced to shutdown", slog.Any("error", err))
	}

	log.InfoContext(ctx, "Processor stopped gracefully")
}

func startMetricsServer(ctx context.Context, log *slog.Logger, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(reg))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.InfoContext(ctx, "Metrics server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Metrics server failed", slog.Any("error", err))
		}
	}()
	return server
}

// setupEventLogging logs service events and feeds the processor metrics
func setupEventLogging(ctx context.Context, events <-chan rewards.Event, log *slog.Logger, m *metrics.Processor) func() {
	return rewards.NewSubscriber(events,
		rewards.OnDrainStarted(func(event rewards.DrainStarted) {
			log.InfoContext(ctx, "Drain started",
				slog.String("startedAt", event.StartedAt.Format(logger.BritishTimeFormat)),
			)
		}),
		rewards.OnDrainBatchCompleted(func(event rewards.DrainBatchCompleted) {
			m.Batches.Inc()
			log.InfoContext(ctx, "Drain batch completed",
				slog.Int("fetched", event.Fetched),
				slog.Int("processed", event.Processed),
				slog.Int("empty", event.Empty),
				slog.Int("failed", event.Failed),
				slog.Int64("lastID", event.LastID),
				slog.Uint64("chunkSize", event.ChunkSize),
			)
		}),
		rewards.OnDrainDone(func(event rewards.DrainDone) {
			log.InfoContext(ctx, "Drain completed",
				slog.Int64("totalProcessed", event.TotalProcessed),
				slog.Duration("duration", event.Duration),
			)
		}),
		rewards.OnDrainError(func(event rewards.DrainError) {
			log.ErrorContext(ctx, "Drain failed", slog.Any("error", event.Err))
		}),
		rewards.OnPollingStarted(func(event rewards.PollingStarted) {
			log.InfoContext(ctx, "Polling started", slog.Duration("interval", event.Interval))
		}),
		rewards.OnPollingBatchCompleted(func(event rewards.PollingBatchCompleted) {
			m.Batches.Inc()
			if event.Fetched == 0 {
				log.DebugContext(ctx, "Polling cycle completed, no new requests")
				return
			}
			log.InfoContext(ctx, "Polling cycle completed",
				slog.Int("fetched", event.Fetched),
				slog.Int("processed", event.Processed),
				slog.Int("failed", event.Failed),
				slog.Int64("lastID", event.LastID),
			)
		}),
		rewards.OnPollingShutdown(func(event rewards.PollingShutdown) {
			log.InfoContext(ctx, "Polling stopped", slog.String("reason", event.Reason.Error()))
		}),
		rewards.OnPollingError(func(event rewards.PollingError) {
			log.ErrorContext(ctx, "Polling failed", slog.Any("error", event.Err))
		}),
		rewards.OnRequestFailed(func(event rewards.RequestFailed) {
			m.RequestFinished(string(rewards.StatusError), 0)
			log.WarnContext(ctx, "Request failed",
				slog.Int64("requestID", event.RequestID),
				slog.String("wallet", event.Wallet),
				slog.String("stage", string(event.Stage)),
				slog.Any("error", event.Err),
			)
		}),
		rewards.OnRequestCompleted(func(event rewards.RequestCompleted) {
			m.RequestFinished(string(event.Status), event.Records)
			log.InfoContext(ctx, "Request completed",
				slog.Int64("requestID", event.RequestID),
				slog.String("wallet", event.Wallet),
				slog.Int("year", event.Year),
				slog.String("status", string(event.Status)),
				slog.Int("records", event.Records),
				slog.String("income", event.Income),
			)
		}),
	)
}
