package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"medium_syncer/internal/config"
	"medium_syncer/internal/events"
	"medium_syncer/internal/publisher/wordpress"
	"medium_syncer/internal/scheduler"
	"medium_syncer/internal/server"
	"medium_syncer/internal/service"
	"medium_syncer/internal/source/medium"
	"medium_syncer/internal/storage/postgres"
	"medium_syncer/internal/transform"
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

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize stores
	ledgerStore := postgres.NewLedgerStore(db)
	runStore := postgres.NewRunStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize Medium source
	mediumSource := medium.New(medium.Config{
		APIKey:         cfg.Medium.APIKey,
		APIHost:        cfg.Medium.APIHost,
		Timeout:        cfg.Medium.Timeout,
		MaxAttempts:    cfg.Medium.Retry.MaxAttempts,
		InitialBackoff: cfg.Medium.Retry.InitialBackoff,
		MaxBackoff:     cfg.Medium.Retry.MaxBackoff,
	}, logger)

	// Initialize WordPress publisher
	wpPublisher := wordpress.New(wordpress.Config{
		URL:         cfg.WordPress.URL,
		Username:    cfg.WordPress.Username,
		AppPassword: cfg.WordPress.AppPassword,
		AuthorName:  cfg.WordPress.AuthorName,
		Timeout:     cfg.WordPress.Timeout,
	}, logger)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := wpPublisher.Ping(pingCtx); err != nil {
		logger.Warn("wordpress connection check failed", "error", err)
	}
	pingCancel()

	var transformer service.Transformer = transform.Noop{}
	if cfg.Translator.Enabled {
		transformer = transform.NewTranslator(transform.Config{
			Endpoint: cfg.Translator.Endpoint,
			Model:    cfg.Translator.Model,
			APIKey:   cfg.Translator.APIKey,
			Timeout:  cfg.Translator.Timeout,
		})
	}

	// Optional event broadcasting
	var eventPublisher service.EventPublisher
	if cfg.Events.Enabled {
		rabbitMQ, err := events.NewRabbitMQ(events.Config{
			URL:        cfg.Events.URL,
			Exchange:   cfg.Events.Exchange,
			RoutingKey: cfg.Events.RoutingKey,
			QueueName:  cfg.Events.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		eventPublisher = rabbitMQ
	}

	syncService := service.NewSyncService(
		mediumSource,
		transformer,
		wpPublisher,
		ledgerStore,
		runStore,
		txManager,
		eventPublisher,
		logger,
		cfg.Sync,
		cfg.Translator,
	)

	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Sync.Timezone, "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(syncService, cfg.Sync.ScheduleHour, cfg.Sync.ScheduleMin, loc, logger)

	handler := server.NewHandler(syncService, sched, logger)
	router := server.NewRouter(handler, cfg.Server.APIKey)
	srv := server.NewHTTPServer(cfg.Server.Addr, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	go func() {
		logger.Info("starting api server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting medium syncer",
		"source", mediumSource.Name(),
		"keywords", cfg.Sync.Keywords,
		"schedule", time.Date(0, 1, 1, cfg.Sync.ScheduleHour, cfg.Sync.ScheduleMin, 0, 0, loc).Format("15:04"),
		"timezone", cfg.Sync.Timezone,
	)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown", "error", err)
	}
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
