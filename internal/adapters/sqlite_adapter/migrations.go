// internal/adapters/sqlite_adapter/migrations.go
package sqlite_adapter

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// newMigrate builds a migrate instance over the shared *sql.DB. It is never
// closed because its driver would close the connection with it.
func (d *Database) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded source driver: %w", err)
	}

	driver, err := migratesqlite.WithInstance(d.db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Migrate applies every pending embedded migration
func (d *Database) Migrate() error {
	m, err := d.newMigrate()
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err == nil {
		d.logger.Info("sqlite migrations applied", slog.Uint64("version", uint64(version)))
	}
	return nil
}

// Rollback reverts the most recent migration
func (d *Database) Rollback() error {
	m, err := d.newMigrate()
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, migrate.ErrNilVersion) || errors.Is(err, fs.ErrNotExist) {
			d.logger.Info("no sqlite migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version; zero means none
func (d *Database) SchemaVersion(_ context.Context) (uint, bool, error) {
	m, err := d.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

// ForceVersion records version as applied and clears the dirty flag
func (d *Database) ForceVersion(version int) error {
	m, err := d.newMigrate()
	if err != nil {
		return err
	}

	d.logger.Warn("forcing sqlite migration version", slog.Int("version", version))
	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}
	return nil
}
