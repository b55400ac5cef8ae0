// internal/platform/platform.go
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/pank1717/Stocks-sub000/internal/adapters/db"
	"github.com/pank1717/Stocks-sub000/internal/adapters/sqlite_adapter"
	"github.com/pank1717/Stocks-sub000/internal/adapters/storage"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/handlers/middleware"
	"github.com/pank1717/Stocks-sub000/internal/pkg/auth"
	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
	"github.com/pank1717/Stocks-sub000/internal/pkg/logger"
)

// Store bundles the repositories of one persistence backend
type Store struct {
	Database ports.Database
	Items    ports.ItemRepository
	Ledger   ports.LedgerRepository
}

// Close releases the underlying connections
func (s *Store) Close() {
	if s.Database != nil {
		s.Database.Close()
	}
}

// NewLogger builds the process logger from cfg. When log shipping is enabled
// the returned closer flushes the Elasticsearch buffer.
func NewLogger(cfg *config.Config) (*slog.Logger, func(context.Context) error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Elasticsearch.Enabled {
		return logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Environment), noop
	}

	elk, err := logger.NewELKHandler(logger.ELKConfig{
		Addresses:     cfg.Elasticsearch.Addresses,
		Username:      cfg.Elasticsearch.Username,
		Password:      cfg.Elasticsearch.Password,
		IndexPattern:  cfg.Elasticsearch.Index,
		BatchSize:     cfg.Elasticsearch.BatchSize,
		FlushInterval: cfg.Elasticsearch.FlushInterval,
		Level:         logger.ParseLevel(cfg.App.LogLevel),
		Service:       cfg.App.Name,
		Environment:   cfg.App.Environment,
	})
	if err != nil {
		l := logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Environment)
		l.Warn("log shipping disabled", slog.String("error", err.Error()))
		return l, noop
	}

	return logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Environment, elk), elk.Close
}

// OpenStore connects the configured backend and brings its schema up to date
func OpenStore(ctx context.Context, cfg *config.Config, l *slog.Logger) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		database, err := sqlite_adapter.Open(ctx, cfg.Storage.SQLitePath, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Store{
			Database: database,
			Items:    sqlite_adapter.NewItemRepository(database, l),
			Ledger:   sqlite_adapter.NewLedgerRepository(database, l),
		}, nil

	case config.DriverPostgres:
		l.Info("connecting to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Name))

		if err := db.RunMigrationsWithRetry(ctx, MigrationConfig(cfg), l, 3); err != nil {
			return nil, err
		}

		database, err := db.NewDatabase(ctx, PostgresConfig(cfg), l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return &Store{
			Database: database,
			Items:    db.NewItemRepository(database, l),
			Ledger:   db.NewLedgerRepository(database, l),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// PostgresConfig maps the database section onto the pool settings
func PostgresConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

// MigrationConfig returns the Postgres migration settings
func MigrationConfig(cfg *config.Config) *db.MigrationConfig {
	return &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewArchiveStorage returns S3 when a bucket is configured and the local
// archive directory otherwise
func NewArchiveStorage(ctx context.Context, cfg *config.Config, l *slog.Logger) (ports.ObjectStorage, error) {
	if cfg.AWS.S3Bucket == "" {
		return storage.NewLocalStorage(cfg.Inventory.ArchiveDir, l), nil
	}

	return storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, l)
}

// NewTokenManager builds the bearer token manager from the security section
func NewTokenManager(cfg *config.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTExpiration)
}

// LocalPrincipal is the fixed identity used by the local auth mode
func LocalPrincipal(cfg *config.Config) (domain.Principal, error) {
	role, err := domain.ParseRole(cfg.Auth.LocalRole)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{
		Subject: "local:" + strings.ToLower(cfg.Auth.LocalEmail),
		Email:   cfg.Auth.LocalEmail,
		Name:    cfg.Auth.LocalName,
		Role:    role,
	}, nil
}

// NewAuthenticator chains the configured auth modes in order. sessions may
// be nil when the session mode is disabled.
func NewAuthenticator(cfg *config.Config, tokens *auth.TokenManager, sessions ports.SessionStore) (middleware.Authenticator, error) {
	var chain middleware.ChainAuthenticator

	for _, mode := range cfg.Auth.Modes {
		switch mode {
		case config.AuthModeJWT:
			chain = append(chain, middleware.NewJWTAuthenticator(tokens))
		case config.AuthModeSession:
			if sessions == nil {
				return nil, fmt.Errorf("session auth mode requires a session store")
			}
			chain = append(chain, middleware.NewSessionAuthenticator(sessions, cfg.Auth.SessionCookie))
		case config.AuthModeLocal:
			p, err := LocalPrincipal(cfg)
			if err != nil {
				return nil, err
			}
			chain = append(chain, middleware.NewStaticAuthenticator(p))
		default:
			return nil, fmt.Errorf("unknown auth mode %q", mode)
		}
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no auth mode configured")
	}
	return chain, nil
}
