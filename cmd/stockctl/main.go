// cmd/stockctl/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pank1717/Stocks-sub000/internal/pkg/config"
	"github.com/pank1717/Stocks-sub000/internal/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand
type cli struct {
	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Administration commands for the stock inventory",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newLedgerCmd(c),
		newTokenCmd(c),
	)
	return root
}

// load reads the configuration once and builds the command logger
func (c *cli) load(ctx context.Context) error {
	if c.cfg != nil {
		return nil
	}

	l := logger.SetupLogger(c.logLevel, "text", os.Getenv("APP_ENV"))

	cfg, err := config.Load(l)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	secrets, err := config.NewSecretsManager(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize secrets manager: %w", err)
	}
	if err := config.ApplySecrets(ctx, cfg, secrets); err != nil {
		return fmt.Errorf("failed to apply secrets: %w", err)
	}

	c.cfg = cfg
	c.logger = l.With(slog.String("component", "stockctl"))
	return nil
}
