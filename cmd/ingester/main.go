package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"job_ingester/internal/config"
	"job_ingester/internal/domain"
	"job_ingester/internal/extract"
	"job_ingester/internal/filter"
	"job_ingester/internal/publisher"
	"job_ingester/internal/report"
	"job_ingester/internal/scheduler"
	"job_ingester/internal/service"
	"job_ingester/internal/source/remotive"
	"job_ingester/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, logger)
	stop()

	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	db, err := postgres.Open(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open store", "error", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
		return 1
	}
	defer db.Close()
	logger.Info("connected to database")

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return 1
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	extractor := extract.New(cfg.Skills)
	postingStore := postgres.NewPostingStore(db, extractor.Columns())
	txManager := postgres.NewTransactionManager(db)

	source := remotive.New(remotive.Config{
		BaseURL:        cfg.Source.BaseURL,
		Category:       cfg.Source.Category,
		Search:         cfg.Source.Search,
		Limit:          cfg.Source.Limit,
		Timeout:        cfg.Source.Timeout,
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		InitialBackoff: cfg.Source.Retry.InitialBackoff,
		MaxBackoff:     cfg.Source.Retry.MaxBackoff,
	}, logger)

	ingestService := service.NewIngestService(
		source,
		filter.NewChain(cfg.Filters),
		extractor,
		postingStore,
		txManager,
		pub,
		report.New(cfg.Report.TextPath, cfg.Report.SnapshotPath, extractor.Columns()),
		logger,
	)

	sched := scheduler.NewScheduler(ingestService, cfg.Run.Interval, cfg.Run.Timeout, logger)

	if cfg.Run.Interval == 0 {
		return runOnce(ctx, sched, os.Stdout, logger)
	}

	logger.Info("starting job ingester",
		"source", source.Name(),
		"interval", cfg.Run.Interval,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		return 1
	}
	return 0
}

type onceRunner interface {
	RunOnce(ctx context.Context) (*domain.RunStats, error)
}

// runOnce executes one batch, prints its outcome to out and returns the
// process exit code.
func runOnce(ctx context.Context, runner onceRunner, out io.Writer, logger *slog.Logger) int {
	stats, err := runner.RunOnce(ctx)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		if stats == nil {
			return 1
		}
	}

	if stats.Inserted > 0 {
		fmt.Fprintf(out, "inserted %d new postings\n", stats.Inserted)
	} else {
		fmt.Fprintln(out, "no new postings")
	}

	if err != nil {
		return 1
	}
	return 0
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
