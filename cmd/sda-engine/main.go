package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/sda-engine/internal/api"
	"github.com/miradorstack/sda-engine/internal/cache"
	"github.com/miradorstack/sda-engine/internal/config"
	"github.com/miradorstack/sda-engine/internal/engine"
	"github.com/miradorstack/sda-engine/internal/events"
	"github.com/miradorstack/sda-engine/internal/metrics"
	"github.com/miradorstack/sda-engine/internal/repo"
	"github.com/miradorstack/sda-engine/internal/services"
	"github.com/miradorstack/sda-engine/internal/snapshot"
	"github.com/miradorstack/sda-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting sda-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	cacheProvider := newCacheProvider(cfg.Cache, logger)
	defer cacheProvider.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		historySource  snapshot.HistorySource
		workloadSource snapshot.WorkloadSource
	)
	if cfg.Database.DSN != "" {
		db, err := openDatabase(cfg.Database)
		if err != nil {
			logger.Error("failed to open decision history database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		pgRepo := repo.NewPGHistoryRepo(db)
		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		err = pgRepo.Ping(pingCtx)
		cancelPing()
		if err != nil {
			logger.Error("decision history database unreachable", slog.Any("error", err))
			os.Exit(1)
		}
		historySource = pgRepo
		if cfg.Snapshot.WorkloadSource == config.WorkloadFromPostgres {
			workloadSource = pgRepo
		}
	}
	if cfg.Snapshot.WorkloadSource == config.WorkloadFromQueue && cfg.Clients.Queue.BaseURL != "" {
		workloadSource = repo.NewQueueClient(
			cfg.Clients.Queue.BaseURL,
			cfg.Clients.Queue.PendingPath,
			cfg.Clients.Queue.Timeout,
			cacheProvider,
			cfg.Cache.WorkloadTTL,
			logger,
		)
	}

	store := snapshot.NewStore()
	if historySource != nil || workloadSource != nil {
		refresher := snapshot.NewRefresher(store, historySource, workloadSource, snapshot.RefresherConfig{
			Interval:   cfg.Snapshot.Interval,
			Lookback:   cfg.Snapshot.Lookback,
			MinSamples: cfg.Snapshot.MinSamples,
		}, logger)
		go refresher.Run(ctx)
	} else {
		logger.Warn("no snapshot sources configured; predictions use rule defaults")
	}

	rules, err := engine.LoadRulePack(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load rule pack", slog.Any("error", err))
		os.Exit(1)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			MaxAttempts:  cfg.Events.MaxAttempts,
			WriteTimeout: cfg.Events.WriteTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to create event publisher", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	evaluator := engine.NewEvaluator(
		logger,
		engine.NewRoutingEngine(engine.DefaultRoutingTable()),
		engine.NewTimelinePredictor(rules, logger),
		store,
		publisher,
	)
	approvalService := services.NewApprovalService(logger, evaluator, cfg.Snapshot.StaleAfter)

	server, err := api.NewServer(cfg.Server, approvalService)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddress,
			Handler:           api.NewGateway(approvalService, cfg.Server.RequestTimeout, logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go serveHTTP(httpServer, "rest gateway", logger, stop)
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go serveHTTP(metricsServer, "metrics server", logger, stop)
	}

	go func() {
		if serveErr := server.Serve(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if !server.Shutdown(shutdownCtx) {
		logger.Warn("gRPC calls cut off after graceful timeout", slog.Duration("timeout", cfg.Server.GracefulTimeout))
	}

	for _, srv := range []*http.Server{httpServer, metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	logger.Info("sda-engine stopped")
}

func newCacheProvider(cfg config.CacheConfig, logger *slog.Logger) cache.Provider {
	if cfg.Enabled && cfg.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxRetries:   cfg.MaxRetries,
			TLS:          cfg.TLS,
		})
		if err == nil {
			return provider
		}
		logger.Warn("valkey cache unavailable, falling back to local cache", slog.Any("error", err))
	}
	if cfg.LocalSize > 0 {
		return cache.NewLocalProvider(cfg.LocalSize, cfg.LocalTTL)
	}
	return cache.NoopProvider{}
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func serveHTTP(srv *http.Server, name string, logger *slog.Logger, stop context.CancelFunc) {
	logger.Info(name+" listening", slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(name+" exited", slog.Any("error", err))
		stop()
	}
}
