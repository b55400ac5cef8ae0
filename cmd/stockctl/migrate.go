// cmd/stockctl/migrate.go
package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pank1717/Stocks-sub000/internal/adapters/db"
	"github.com/pank1717/Stocks-sub000/internal/adapters/sqlite_adapter"
	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
	"github.com/pank1717/Stocks-sub000/internal/platform"
)

// schemaMigrator is what both storage backends offer the migrate commands
type schemaMigrator interface {
	up() error
	down() error
	force(version int) error
	version() (uint, bool, error)
	close() error
}

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withMigrator(cmd, func(m schemaMigrator) error {
					if err := m.up(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withMigrator(cmd, func(m schemaMigrator) error {
					if err := m.down(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil || version < -1 {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return c.withMigrator(cmd, func(m schemaMigrator) error {
					if err := m.force(version); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withMigrator(cmd, func(m schemaMigrator) error {
					return printVersion(cmd, m)
				})
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, m schemaMigrator) error {
	version, dirty, err := m.version()
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}

func (c *cli) withMigrator(cmd *cobra.Command, fn func(schemaMigrator) error) error {
	ctx := cmd.Context()
	if err := c.load(ctx); err != nil {
		return err
	}

	var m schemaMigrator
	switch c.cfg.Storage.Driver {
	case config.DriverSQLite:
		database, err := sqlite_adapter.Connect(ctx, c.cfg.Storage.SQLitePath, c.logger)
		if err != nil {
			return err
		}
		m = sqliteMigrator{db: database, cmd: cmd}
	default:
		migrator, err := db.NewMigrator(platform.MigrationConfig(c.cfg), c.logger)
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
		m = postgresMigrator{migrator: migrator, cmd: cmd}
	}

	defer func() {
		if err := m.close(); err != nil {
			c.logger.Warn("failed to close migrator", slog.String("error", err.Error()))
		}
	}()
	return fn(m)
}

type sqliteMigrator struct {
	db  *sqlite_adapter.Database
	cmd *cobra.Command
}

func (m sqliteMigrator) up() error                    { return m.db.Migrate() }
func (m sqliteMigrator) down() error                  { return m.db.Rollback() }
func (m sqliteMigrator) force(version int) error      { return m.db.ForceVersion(version) }
func (m sqliteMigrator) version() (uint, bool, error) { return m.db.SchemaVersion(m.cmd.Context()) }
func (m sqliteMigrator) close() error {
	m.db.Close()
	return nil
}

type postgresMigrator struct {
	migrator *db.Migrator
	cmd      *cobra.Command
}

func (m postgresMigrator) up() error   { return m.migrator.Up(m.cmd.Context()) }
func (m postgresMigrator) down() error { return m.migrator.Down(m.cmd.Context()) }
func (m postgresMigrator) force(version int) error {
	return m.migrator.Force(m.cmd.Context(), version)
}
func (m postgresMigrator) version() (uint, bool, error) {
	return m.migrator.Version(m.cmd.Context())
}
func (m postgresMigrator) close() error { return m.migrator.Close() }
