package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"listing_watcher/internal/config"
	"listing_watcher/internal/extractor"
	"listing_watcher/internal/publisher"
	"listing_watcher/internal/report"
	"listing_watcher/internal/scheduler"
	"listing_watcher/internal/service"
	"listing_watcher/internal/source/classifieds"
	"listing_watcher/internal/storage/file"
	"listing_watcher/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info", "json")

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("config file not found, using defaults", "path", *configPath)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel, cfg.LogFormat)

	ext, err := extractor.New(extractor.Config{BaseURL: cfg.BaseURL}, logger)
	if err != nil {
		logger.Error("failed to create extractor", "error", err)
		os.Exit(1)
	}

	fetcher := classifieds.New(classifieds.Config{
		UserAgent:         cfg.HTTP.UserAgent,
		Timeout:           cfg.HTTP.Timeout,
		MaxAttempts:       cfg.HTTP.Retry.MaxAttempts,
		InitialBackoff:    cfg.HTTP.Retry.InitialBackoff,
		MaxBackoff:        cfg.HTTP.Retry.MaxBackoff,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		RespectRobots:     cfg.HTTP.RespectRobots,
	}, logger)

	csvLog := file.NewCSVLog(cfg.Storage.CSVPath)

	var (
		seenStore service.SeenStore
		sinks     service.Sinks
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

		seenStore = postgres.NewSeenStore(db)
		// The archive ignores ids it already holds, so it goes first:
		// a CSV failure then leaves nothing to duplicate on retry.
		sinks = service.Sinks{postgres.NewListingStore(db), csvLog}
	default:
		seenStore = file.NewSeenStore(cfg.Storage.SeenPath)
		sinks = service.Sinks{csvLog}
	}

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
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	names := make([]string, len(cfg.Categories))
	for i, c := range cfg.Categories {
		names[i] = c.Name
	}
	reporter := report.NewConsole(os.Stdout, csvLog.AbsPath(), names)

	pollService := service.NewPollService(
		cfg.Categories,
		fetcher,
		ext,
		seenStore,
		sinks,
		pub,
		reporter,
		logger,
		cfg.Poll,
	)

	sched := scheduler.NewScheduler(pollService, cfg.Poll, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting listing watcher",
		"categories", len(cfg.Categories),
		"interval", cfg.Poll.Interval,
		"backend", cfg.Storage.Backend,
		"csv", csvLog.AbsPath(),
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level, format string) *slog.Logger {
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

	// stdout carries the console report.
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
