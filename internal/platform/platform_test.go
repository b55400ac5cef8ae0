// internal/platform/platform_test.go
package platform_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/handlers/middleware"
	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
	"github.com/pank1717/Stocks-sub000/internal/platform"
	"github.com/pank1717/Stocks-sub000/test/helpers"
	"github.com/pank1717/Stocks-sub000/test/mocks"
)

func testConfig() *config.Config {
	cfg := helpers.LoadTestConfig()
	cfg.App.LogLevel = "error"
	cfg.App.LogFormat = "json"
	cfg.Auth.Modes = []string{config.AuthModeJWT}
	cfg.Auth.LocalEmail = "Desk@Example.com"
	cfg.Auth.LocalName = "Front desk"
	cfg.Auth.LocalRole = "technician"
	return cfg
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "stocks.db")

	store, err := platform.OpenStore(ctx, cfg, helpers.TestLogger())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Database.Ping(ctx))

	item := helpers.CreateTestItem()
	require.NoError(t, store.Items.Create(ctx, item, nil))

	found, err := store.Items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Name, found.Name)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "mysql"

	_, err := platform.OpenStore(context.Background(), cfg, helpers.TestLogger())
	assert.Error(t, err)
}

func TestLocalPrincipal(t *testing.T) {
	p, err := platform.LocalPrincipal(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "local:desk@example.com", p.Subject)
	assert.Equal(t, domain.RoleTechnician, p.Role)

	cfg := testConfig()
	cfg.Auth.LocalRole = "owner"
	_, err = platform.LocalPrincipal(cfg)
	assert.Error(t, err)
}

func TestNewAuthenticator(t *testing.T) {
	cfg := testConfig()
	tokens := platform.NewTokenManager(cfg)

	t.Run("jwt_then_local", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.Modes = []string{config.AuthModeJWT, config.AuthModeLocal}

		a, err := platform.NewAuthenticator(cfg, tokens, nil)
		require.NoError(t, err)

		token, err := tokens.GenerateToken(domain.Principal{Subject: "u1", Email: "admin@example.com", Role: domain.RoleAdmin})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/items", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		p, err := a.Authenticate(req)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, p.Role)

		p, err = a.Authenticate(httptest.NewRequest("GET", "/api/items", nil))
		require.NoError(t, err)
		assert.Equal(t, domain.RoleTechnician, p.Role)
	})

	t.Run("jwt_only_rejects_anonymous", func(t *testing.T) {
		a, err := platform.NewAuthenticator(cfg, tokens, nil)
		require.NoError(t, err)

		_, err = a.Authenticate(httptest.NewRequest("GET", "/api/items", nil))
		assert.ErrorIs(t, err, middleware.ErrNoCredentials)
	})

	t.Run("session_requires_store", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.Modes = []string{config.AuthModeSession}

		_, err := platform.NewAuthenticator(cfg, tokens, nil)
		assert.Error(t, err)

		ctrl := gomock.NewController(t)
		_, err = platform.NewAuthenticator(cfg, tokens, mocks.NewMockSessionStore(ctrl))
		assert.NoError(t, err)
	})

	t.Run("no_modes", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.Modes = nil

		_, err := platform.NewAuthenticator(cfg, tokens, nil)
		assert.Error(t, err)
	})
}

func TestNewArchiveStorage_Local(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Inventory.ArchiveDir = t.TempDir()

	store, err := platform.NewArchiveStorage(ctx, cfg, helpers.TestLogger())
	require.NoError(t, err)

	_, err = store.Upload(ctx, "ledger/2026/10/17/1.jsonl", strings.NewReader("{}\n"), "application/x-ndjson")
	require.NoError(t, err)

	objects, err := store.List(ctx, "ledger/")
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestNewLogger_WithoutShipping(t *testing.T) {
	l, closeFn := platform.NewLogger(testConfig())
	require.NotNil(t, l)
	assert.NoError(t, closeFn(context.Background()))
}
