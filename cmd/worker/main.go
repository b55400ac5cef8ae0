// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	redis_a "github.com/pank1717/Stocks-sub000/internal/adapters/redis_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/services"
	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
	"github.com/pank1717/Stocks-sub000/internal/pkg/logger"
	"github.com/pank1717/Stocks-sub000/internal/pkg/metrics"
	"github.com/pank1717/Stocks-sub000/internal/platform"
	"github.com/pank1717/Stocks-sub000/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json", os.Getenv("APP_ENV"))

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

	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	store, err := platform.OpenStore(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	redisClient, err := platform.NewRedisClient(ctx, cfg)
	if err != nil {
		slogger.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, slogger)

	archiveStorage, err := platform.NewArchiveStorage(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize archive storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reportingService := services.NewReportingService(store.Items, store.Ledger, slogger)
	archiver := services.NewLedgerArchiver(store.Ledger, archiveStorage, slogger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()
	mux.Use(workers.Instrument(metrics.New(prometheus.DefaultRegisterer), slogger))

	alertProcessor := workers.NewAlertProcessor(store.Items, cache, cfg.Inventory.RecentAlertsMax, slogger)
	mux.HandleFunc(workers.TypeLowStockAlert, alertProcessor.ProcessLowStockAlert)

	loanProcessor := workers.NewLoanScanProcessor(reportingService, slogger)
	mux.HandleFunc(workers.TypeOverdueLoansScan, loanProcessor.ScanOverdueLoans)

	archiveProcessor := workers.NewArchiveProcessor(archiver, slogger)
	mux.HandleFunc(workers.TypeLedgerArchive, archiveProcessor.ArchiveLedger)

	scheduler, err := newScheduler(redisOpt, cfg, slogger)
	if err != nil {
		slogger.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			slogger.Error("failed to run scheduler", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

// newScheduler registers the loan scan and the ledger archive. An empty cron
// expression disables the task.
func newScheduler(redisOpt asynq.RedisClientOpt, cfg *config.Config, logger *slog.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   newAsynqLogger(logger),
		Location: time.UTC,
	})

	if cfg.Inventory.LoanScanCron != "" {
		id, err := scheduler.Register(cfg.Inventory.LoanScanCron, workers.NewOverdueLoansScanTask())
		if err != nil {
			return nil, fmt.Errorf("failed to schedule loan scan: %w", err)
		}
		logger.Info("periodic task registered",
			slog.String("type", workers.TypeOverdueLoansScan),
			slog.String("cron", cfg.Inventory.LoanScanCron),
			slog.String("entry_id", id))
	}

	if cfg.Inventory.ArchiveCron != "" {
		task, err := workers.NewLedgerArchiveTask(workers.LedgerArchivePayload{
			Window:    cfg.Inventory.ArchiveWindow,
			Cleanup:   cfg.Inventory.ArchiveRetention > 0,
			Retention: cfg.Inventory.ArchiveRetention,
		})
		if err != nil {
			return nil, err
		}
		id, err := scheduler.Register(cfg.Inventory.ArchiveCron, task)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule ledger archive: %w", err)
		}
		logger.Info("periodic task registered",
			slog.String("type", workers.TypeLedgerArchive),
			slog.String("cron", cfg.Inventory.ArchiveCron),
			slog.String("entry_id", id))
	}

	return scheduler, nil
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
