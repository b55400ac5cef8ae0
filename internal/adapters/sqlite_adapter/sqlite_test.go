package sqlite_adapter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/adapters/sqlite_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/test/helpers"
)

var itemRowColumns = []string{
	"id", "name", "model", "quantity", "category", "serial", "location", "supplier",
	"purchase_date", "price", "photo", "notes", "alert_threshold", "created_at", "updated_at",
}

func TestAdjust_MockedLedgerFailureRollsBack(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	database := sqlite_adapter.NewDatabase(sqlDB, "mock", helpers.TestLogger())
	repo := sqlite_adapter.NewItemRepository(database, helpers.TestLogger())

	now := time.Now().UTC()
	rows := sqlmock.NewRows(itemRowColumns).AddRow(
		"item-1", "Monitor", "", 10, "ecrans", "", "", "",
		nil, "120.00", "", "", 3, now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM items WHERE id = \?`).WithArgs("item-1").WillReturnRows(rows)
	mock.ExpectExec(`UPDATE items SET quantity = \? WHERE id = \?`).
		WithArgs(7, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stock_history`).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	adj := domain.Adjustment{ItemID: "item-1", Type: domain.MovementRemove, Quantity: 3}
	_, err := repo.Adjust(context.Background(), "item-1", func(current *domain.Item) (*domain.MovementEntry, error) {
		return adj.Apply(current.Quantity, now)
	})

	var persistence *domain.PersistenceError
	require.ErrorAs(t, err, &persistence)
	assert.Equal(t, "adjust stock", persistence.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_MockedRejectionNeverWrites(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	database := sqlite_adapter.NewDatabase(sqlDB, "mock", helpers.TestLogger())
	repo := sqlite_adapter.NewItemRepository(database, helpers.TestLogger())

	now := time.Now().UTC()
	rows := sqlmock.NewRows(itemRowColumns).AddRow(
		"item-1", "Monitor", "", 2, "ecrans", "", "", "",
		nil, "120.00", "", "", 3, now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM items`).WillReturnRows(rows)
	mock.ExpectRollback()

	adj := domain.Adjustment{ItemID: "item-1", Type: domain.MovementRemove, Quantity: 5}
	_, err := repo.Adjust(context.Background(), "item-1", func(current *domain.Item) (*domain.MovementEntry, error) {
		return adj.Apply(current.Quantity, now)
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MockedLedgerFailureRollsBackItem(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	database := sqlite_adapter.NewDatabase(sqlDB, "mock", helpers.TestLogger())
	repo := sqlite_adapter.NewItemRepository(database, helpers.TestLogger())

	item := helpers.CreateTestItem()
	item.PrepareForStorage(time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stock_history`).WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), item, item.InitialEntry(""))
	var persistence *domain.PersistenceError
	require.ErrorAs(t, err, &persistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Health(t *testing.T) {
	database := helpers.SetupSQLite(t)

	require.NoError(t, database.Ping(context.Background()))

	health := database.Health(context.Background())
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "sqlite", health["driver"])
}

func TestDatabase_MigrateIsIdempotent(t *testing.T) {
	database := helpers.SetupSQLite(t)

	require.NoError(t, database.Migrate())

	var tables int
	require.NoError(t, database.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('items', 'stock_history')`,
	).Scan(&tables))
	assert.Equal(t, 2, tables)
}

func TestDatabase_RollbackAndVersion(t *testing.T) {
	database := helpers.SetupSQLite(t)

	version, dirty, err := database.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ports.CurrentSchemaVersion, version)
	assert.False(t, dirty)

	require.NoError(t, database.Rollback())

	version, _, err = database.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var tables int
	require.NoError(t, database.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'stock_history'`,
	).Scan(&tables))
	assert.Zero(t, tables)

	require.NoError(t, database.Migrate())
	version, _, err = database.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestConnect_LeavesSchemaUntouched(t *testing.T) {
	database, err := sqlite_adapter.Connect(context.Background(), sqlite_adapter.MemoryPath, helpers.TestLogger())
	require.NoError(t, err)
	defer database.Close()

	version, _, err := database.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestDatabase_ForceVersion(t *testing.T) {
	database := helpers.SetupSQLite(t)

	require.NoError(t, database.ForceVersion(1))

	version, dirty, err := database.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
