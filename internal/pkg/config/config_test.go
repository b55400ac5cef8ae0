package config_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := config.Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, config.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, []string{config.AuthModeJWT, config.AuthModeSession}, cfg.Auth.Modes)
	assert.Equal(t, "stock_session", cfg.Auth.SessionCookie)
	assert.Equal(t, 5, cfg.Inventory.DefaultAlertThreshold)
	assert.Equal(t, int64(100), cfg.Inventory.RecentAlertsMax)
	assert.Equal(t, time.Hour, cfg.Inventory.AlertDedupWindow)
	assert.True(t, cfg.Inventory.HealthVerifyLedger)
	assert.Equal(t, 3, cfg.Asynq.Queues["default"])
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/var/lib/stocks/stocks.db")
	t.Setenv("AUTH_MODE", "local")
	t.Setenv("LOCAL_USER_ROLE", "technician")
	t.Setenv("DEFAULT_ALERT_THRESHOLD", "3")
	t.Setenv("ALERT_DEDUP_WINDOW", "15m")
	t.Setenv("HEALTH_VERIFY_LEDGER", "false")
	t.Setenv("ELASTICSEARCH_ADDRESSES", "http://es1:9200, http://es2:9200")

	cfg, err := config.Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/stocks/stocks.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.HasAuthMode(config.AuthModeLocal))
	assert.False(t, cfg.HasAuthMode(config.AuthModeJWT))
	assert.Equal(t, "technician", cfg.Auth.LocalRole)
	assert.Equal(t, 3, cfg.Inventory.DefaultAlertThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Inventory.AlertDedupWindow)
	assert.False(t, cfg.Inventory.HealthVerifyLedger)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elasticsearch.Addresses)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown_storage_driver",
			env:  map[string]string{"STORAGE_DRIVER": "mysql"},
		},
		{
			name: "unknown_auth_mode",
			env:  map[string]string{"AUTH_MODE": "ldap"},
		},
		{
			name: "invalid_local_role",
			env:  map[string]string{"AUTH_MODE": "local", "LOCAL_USER_ROLE": "owner"},
		},
		{
			name: "negative_alert_threshold",
			env:  map[string]string{"DEFAULT_ALERT_THRESHOLD": "-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load(discardLogger())
			assert.Error(t, err)
		})
	}
}

func TestProductionValidator(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			App:      config.AppConfig{Name: "stocks-api", Environment: "production"},
			Storage:  config.StorageConfig{Driver: config.DriverPostgres},
			Database: config.DatabaseConfig{Password: "secret", SSLMode: "require"},
			Auth:     config.AuthConfig{Modes: []string{config.AuthModeJWT}},
			Security: config.SecurityConfig{
				JWTSecret:      "0123456789abcdef0123456789abcdef",
				SecureHeaders:  true,
				AllowedOrigins: []string{"https://stock.example.com"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{
			name:    "placeholder_password",
			mutate:  func(c *config.Config) { c.Database.Password = "MISSING_DB_PASSWORD" },
			wantErr: true,
		},
		{
			name:    "ssl_disabled",
			mutate:  func(c *config.Config) { c.Database.SSLMode = "disable" },
			wantErr: true,
		},
		{
			name: "ssl_disabled_with_sqlite",
			mutate: func(c *config.Config) {
				c.Storage.Driver = config.DriverSQLite
				c.Database.SSLMode = "disable"
			},
		},
		{
			name:    "local_auth",
			mutate:  func(c *config.Config) { c.Auth.Modes = []string{config.AuthModeLocal} },
			wantErr: true,
		},
		{
			name:    "tls_without_cert",
			mutate:  func(c *config.Config) { c.Server.TLSEnabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := config.Run(cfg, &config.ProductionValidator{}, &config.SecurityValidator{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBasicValidator_RequiredFields(t *testing.T) {
	cfg := &config.Config{
		App:      config.AppConfig{Name: "stocks-api"},
		Storage:  config.StorageConfig{Driver: config.DriverSQLite},
		Server:   config.ServerConfig{Port: "8080"},
		Redis:    config.RedisConfig{PoolSize: 1},
		Security: config.SecurityConfig{RateLimitRequests: 1},
	}

	err := (&config.BasicValidator{}).Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingRequiredConfig)
	assert.Contains(t, err.Error(), "App.Environment")
}

func TestApplySecrets(t *testing.T) {
	t.Setenv(config.SecretJWTSecret, "from-environment-0123456789abcdef")

	cfg := &config.Config{
		Database: config.DatabaseConfig{Password: "loaded"},
		Security: config.SecurityConfig{JWTSecret: "loaded"},
	}

	err := config.ApplySecrets(context.Background(), cfg, config.NewEnvSecretsManager())
	require.NoError(t, err)

	assert.Equal(t, "loaded", cfg.Database.Password)
	assert.Equal(t, "from-environment-0123456789abcdef", cfg.Security.JWTSecret)
}
