// cmd/stockctl/seed.go
package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/core/services"
	"github.com/pank1717/Stocks-sub000/internal/handlers"
	"github.com/pank1717/Stocks-sub000/internal/platform"
)

//go:embed catalog.json
var defaultCatalog []byte

const seedActor = "stockctl"

func newSeedCmd(c *cli) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a catalog of items into the inventory",
		Long: "Loads items from a JSON array using the same fields as POST /api/items. " +
			"Items whose name and model already exist are skipped. Without --file the built-in catalog is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			catalog, err := readCatalog(file)
			if err != nil {
				return err
			}

			if err := c.load(ctx); err != nil {
				return err
			}

			store, err := platform.OpenStore(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := services.NewInventoryService(store.Items, store.Ledger, nil, c.logger)
			report, err := seedItems(ctx, svc, catalog, c.cfg.Inventory.DefaultAlertThreshold, dryRun, c.logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d, dry run %t\n",
				report.Created, report.Skipped, dryRun)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON catalog to load (default: built-in catalog)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the catalog without writing")
	return cmd
}

// seedReport counts what a seed run did
type seedReport struct {
	Created int
	Skipped int
}

func readCatalog(path string) ([]handlers.CreateItemRequest, error) {
	var r io.Reader = bytes.NewReader(defaultCatalog)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		defer f.Close()
		r = f
	}
	return decodeCatalog(r)
}

func decodeCatalog(r io.Reader) ([]handlers.CreateItemRequest, error) {
	var catalog []handlers.CreateItemRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i := range catalog {
		if err := catalog[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i+1, err)
		}
	}
	return catalog, nil
}

func catalogKey(name, model string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.ToLower(strings.TrimSpace(model))
}

// seedItems creates every catalog entry not already present. A dry run
// validates each entry without storing it.
func seedItems(
	ctx context.Context,
	svc ports.InventoryService,
	catalog []handlers.CreateItemRequest,
	defaultThreshold int,
	dryRun bool,
	logger *slog.Logger,
) (seedReport, error) {
	var report seedReport

	existing, err := svc.ListItems(ctx, domain.ItemFilter{})
	if err != nil {
		return report, err
	}
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[catalogKey(item.Name, item.Model)] = true
	}

	for i := range catalog {
		item := catalog[i].ToDomain(defaultThreshold)
		key := catalogKey(item.Name, item.Model)
		if seen[key] {
			logger.DebugContext(ctx, "item already present", slog.String("name", item.Name))
			report.Skipped++
			continue
		}

		if dryRun {
			if err := item.Validate(); err != nil {
				return report, fmt.Errorf("catalog entry %d: %w", i+1, err)
			}
		} else if err := svc.CreateItem(ctx, item, seedActor); err != nil {
			return report, fmt.Errorf("failed to seed %q: %w", item.Name, err)
		}

		seen[key] = true
		report.Created++
	}

	logger.InfoContext(ctx, "seed completed",
		slog.Int("created", report.Created),
		slog.Int("skipped", report.Skipped),
		slog.Bool("dry_run", dryRun))
	return report, nil
}
