// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/adapters/db"
	"github.com/pank1717/Stocks-sub000/internal/adapters/sqlite_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_inventory",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_inventory",
		SSLMode:            "disable",
		MaxConnections:     10,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}
	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupSQLite opens a migrated in-memory SQLite database
func SetupSQLite(t testing.TB) *sqlite_adapter.Database {
	t.Helper()

	database, err := sqlite_adapter.Open(context.Background(), sqlite_adapter.MemoryPath, TestLogger())
	require.NoError(t, err, "Could not open SQLite database")
	t.Cleanup(database.Close)

	return database
}

// SetupTestRedis creates a miniredis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "stocks-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Storage: config.StorageConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: sqlite_adapter.MemoryPath,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Auth: config.AuthConfig{
			Modes:         []string{config.AuthModeJWT, config.AuthModeSession},
			SessionTTL:    time.Hour,
			SessionCookie: "stock_session",
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret-0123456789abcdef0123",
			JWTIssuer:         "stocks-test",
			JWTExpiration:     time.Hour,
			RateLimitRequests: 1000,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Inventory: config.InventoryConfig{
			DefaultAlertThreshold: domain.DefaultAlertThreshold,
			AlertDedupWindow:      time.Hour,
			RecentAlertsMax:       100,
			ArchiveWindow:         24 * time.Hour,
			ArchiveRetention:      30 * 24 * time.Hour,
		},
	}
}

// CreateTestItem creates a test item
func CreateTestItem(overrides ...func(*domain.Item)) *domain.Item {
	item := &domain.Item{
		ID:             uuid.NewString(),
		Name:           "Dell P2422H",
		Model:          "P2422H",
		Category:       domain.CategoryMonitors,
		Serial:         "CN-0ABC123",
		Location:       "Salle serveur",
		Supplier:       "Dell",
		Price:          decimal.RequireFromString("189.90"),
		Quantity:       10,
		AlertThreshold: 3,
	}

	for _, override := range overrides {
		override(item)
	}

	return item
}

// CreateTestItems creates count items spread over a few categories
func CreateTestItems(count int) []*domain.Item {
	items := make([]*domain.Item, count)

	categories := []domain.Category{
		domain.CategoryMonitors,
		domain.CategoryLaptops,
		domain.CategoryCables,
		domain.CategoryNetwork,
		domain.CategoryPeripherals,
	}

	for i := 0; i < count; i++ {
		items[i] = CreateTestItem(func(item *domain.Item) {
			item.Name = fmt.Sprintf("Test Item %03d", i+1)
			item.Serial = fmt.Sprintf("SN-%05d", i+1)
			item.Category = categories[i%len(categories)]
			item.Quantity = i % 12
			item.Price = decimal.NewFromInt(int64(10 + i*5))
		})
	}

	return items
}

// SeedItems stores items with their initial stock entries
func SeedItems(t testing.TB, repo ports.ItemRepository, items []*domain.Item) {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()
	for _, item := range items {
		item.PrepareForStorage(now)
		require.NoError(t, repo.Create(ctx, item, item.InitialEntry("seed@example.com")), "Failed to seed item %s", item.Name)
	}
}

// CompareItems compares the metadata and quantity of two items
func CompareItems(t *testing.T, expected, actual *domain.Item) {
	t.Helper()

	require.Equal(t, expected.ID, actual.ID)
	require.Equal(t, expected.Name, actual.Name)
	require.Equal(t, expected.Model, actual.Model)
	require.Equal(t, expected.Category, actual.Category)
	require.Equal(t, expected.Serial, actual.Serial)
	require.Equal(t, expected.Location, actual.Location)
	require.Equal(t, expected.Supplier, actual.Supplier)
	require.Equal(t, expected.Quantity, actual.Quantity)
	require.Equal(t, expected.AlertThreshold, actual.AlertThreshold)
	require.True(t, expected.Price.Equal(actual.Price), "price %s != %s", expected.Price, actual.Price)
}

// TruncateAllTables empties the Postgres test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE TABLE stock_history, items RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}
