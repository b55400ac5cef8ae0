// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/pank1717/Stocks-sub000/internal/adapters/redis_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/core/services"
	"github.com/pank1717/Stocks-sub000/internal/handlers"
	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
	"github.com/pank1717/Stocks-sub000/internal/pkg/logger"
	"github.com/pank1717/Stocks-sub000/internal/pkg/metrics"
	"github.com/pank1717/Stocks-sub000/internal/platform"
	"github.com/pank1717/Stocks-sub000/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("info", "json", os.Getenv("APP_ENV"))

	slogger.Info("starting stock inventory api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	secrets, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize secrets manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := config.ApplySecrets(ctx, cfg, secrets); err != nil {
		slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger, closeLogs := platform.NewLogger(cfg)
	defer closeLogs(context.Background())

	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.Any("auth_modes", cfg.Auth.Modes),
	)

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        deps.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	store          *platform.Store
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	router         http.Handler
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	store, err := platform.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.store = store

	// Redis backs sessions, alert dedup and the background queue. Without it
	// the API still serves inventory requests.
	var (
		cache    ports.CacheRepository
		sessions ports.SessionStore
		notifier ports.StockNotifier
	)

	redisClient, err := platform.NewRedisClient(ctx, cfg)
	switch {
	case err == nil:
		deps.redisClient = redisClient
		redisCache := redis_a.NewCache(redisClient, logger)
		cache = redisCache

		if cfg.HasAuthMode(config.AuthModeSession) {
			sessions = redis_a.NewSessionStore(redisCache, cfg.Auth.SessionTTL, logger)
		}

		asynqRedisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		}
		deps.asynqClient = asynq.NewClient(asynqRedisOpt)
		deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
		notifier = workers.NewAlertNotifier(deps.asynqClient, redisCache, cfg.Inventory.AlertDedupWindow, logger)

	case cfg.HasAuthMode(config.AuthModeSession):
		return nil, fmt.Errorf("session auth mode requires redis: %w", err)

	default:
		logger.Warn("redis unavailable, low stock alerts disabled", slog.String("error", err.Error()))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	inventoryService := services.NewInventoryService(store.Items, store.Ledger, notifier, logger,
		services.WithRecorder(m))
	reportingService := services.NewReportingService(store.Items, store.Ledger, logger)

	tokens := platform.NewTokenManager(cfg)
	authenticator, err := platform.NewAuthenticator(cfg, tokens, sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to configure authentication: %w", err)
	}

	routerCfg := handlers.RouterConfig{
		Inventory: handlers.NewInventoryHandler(inventoryService, reportingService,
			cfg.Inventory.DefaultAlertThreshold, logger),
		Reports: handlers.NewReportsHandler(reportingService, cache, logger),
		Health: handlers.NewHealthHandler(store.Database, redisClientOrNil(deps.redisClient), deps.asynqInspector,
			handlers.BuildInfo{
				Version:     Version,
				Environment: cfg.App.Environment,
				Storage:     cfg.Storage.Driver,
			}, logger, healthOptions(cfg, reportingService)...),
		Authenticator:     authenticator,
		Metrics:           m,
		AllowedOrigins:    cfg.Security.AllowedOrigins,
		SecureHeaders:     cfg.Security.SecureHeaders,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitDuration: cfg.Security.RateLimitDuration,
		RequestTimeout:    cfg.Server.RequestTimeout,
		Logger:            logger,
	}
	if sessions != nil {
		routerCfg.Session = handlers.NewSessionHandler(sessions, cfg.Auth.SessionCookie,
			cfg.Server.TLSEnabled || cfg.IsProduction(), logger)
	}
	if cfg.Server.EnableMetrics {
		routerCfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	deps.router = handlers.NewRouter(routerCfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// redisClientOrNil keeps a nil *redis.Client from becoming a non-nil interface
func redisClientOrNil(c *redis.Client) redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c
}

func healthOptions(cfg *config.Config, verifier handlers.LedgerVerifier) []handlers.HealthOption {
	if !cfg.Inventory.HealthVerifyLedger {
		return nil
	}
	return []handlers.HealthOption{handlers.WithLedgerVerifier(verifier)}
}
