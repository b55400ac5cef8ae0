// cmd/stockctl/ledger.go
package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/core/services"
	"github.com/pank1717/Stocks-sub000/internal/platform"
)

func newLedgerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the stock movement ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check that every item's ledger replays to its stored quantity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.load(ctx); err != nil {
				return err
			}

			store, err := platform.OpenStore(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			problems, err := services.NewReportingService(store.Items, store.Ledger, c.logger).VerifyLedger(ctx)
			if err != nil {
				return err
			}

			if n := writeLedgerReport(cmd.OutOrStdout(), problems); n > 0 {
				return fmt.Errorf("%d items with an inconsistent ledger", n)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "archives",
		Short: "List the ledger snapshots in archive storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			archiver, err := c.archiver(cmd)
			if err != nil {
				return err
			}

			objects, err := archiver.Archives(cmd.Context())
			if err != nil {
				return err
			}
			writeArchiveList(cmd.OutOrStdout(), objects)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show KEY",
		Short: "Print the entries of one ledger snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archiver, err := c.archiver(cmd)
			if err != nil {
				return err
			}

			entries, err := archiver.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	})
	return cmd
}

// archiver reads snapshots only, so it runs without a ledger repository
func (c *cli) archiver(cmd *cobra.Command) (*services.LedgerArchiver, error) {
	ctx := cmd.Context()
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	objects, err := platform.NewArchiveStorage(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	return services.NewLedgerArchiver(nil, objects, c.logger), nil
}

func writeArchiveList(w io.Writer, objects []ports.ObjectInfo) {
	if len(objects) == 0 {
		fmt.Fprintln(w, "no archives")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, obj := range objects {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.UTC().Format(time.RFC3339))
	}
	tw.Flush()
}

func writeEntries(w io.Writer, entries []domain.MovementEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tTYPE\tQTY\tBEFORE\tAFTER\tPERSON\tDATE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.ID, e.ItemID, e.Type, e.Quantity, e.PreviousQuantity, e.NewQuantity, e.Person,
			e.Date.UTC().Format(time.RFC3339))
	}
	tw.Flush()
}

// writeLedgerReport prints one line per inconsistent item in id order and
// returns how many there were
func writeLedgerReport(w io.Writer, problems map[string]error) int {
	if len(problems) == 0 {
		fmt.Fprintln(w, "ledger consistent")
		return 0
	}

	ids := make([]string, 0, len(problems))
	for id := range problems {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%v\n", id, problems[id])
	}
	return len(ids)
}
