// internal/adapters/sqlite_adapter/sqlite.go
package sqlite_adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

// Database is the single-file store of the local-only deployment.
//
// The pool is limited to one connection: SQLite has a single writer, so a
// transaction holding the connection serializes every other statement,
// including concurrent adjustments of the same item.
type Database struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var (
	_ ports.Database        = (*Database)(nil)
	_ ports.SchemaInspector = (*Database)(nil)
)

// Open opens (or creates) the database at path, applies pragmas and runs the
// embedded migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	d, err := Connect(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	if err := d.Migrate(); err != nil {
		d.db.Close()
		return nil, err
	}

	d.logger.Info("sqlite database opened", slog.String("path", path))
	return d, nil
}

// Connect opens the database at path and applies pragmas. The schema is left
// as found.
func Connect(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return NewDatabase(sqlDB, path, logger), nil
}

// NewDatabase wraps an already opened *sql.DB without touching its schema.
func NewDatabase(sqlDB *sql.DB, path string, logger *slog.Logger) *Database {
	return &Database{
		db:     sqlDB,
		path:   path,
		logger: logger.With(slog.String("component", "sqlite")),
	}
}

// DB returns the underlying *sql.DB
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the database
func (d *Database) Close() {
	if err := d.db.Close(); err != nil {
		d.logger.Error("failed to close database", slog.String("error", err.Error()))
		return
	}
	d.logger.Info("database connections closed")
}

// Ping verifies database connectivity
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Health returns database health information
func (d *Database) Health(ctx context.Context) map[string]interface{} {
	stats := d.db.Stats()
	health := map[string]interface{}{
		"status":           "healthy",
		"driver":           "sqlite",
		"path":             d.path,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"wait_count":       stats.WaitCount,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*2)
	defer cancel()

	var result int
	if err := d.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

// Transaction executes fn within a transaction, rolling back on error or panic
func (d *Database) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
