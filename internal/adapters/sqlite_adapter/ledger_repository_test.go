package sqlite_adapter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/services"
	"github.com/pank1717/Stocks-sub000/test/helpers"
)

func TestMonitorScenario(t *testing.T) {
	ctx := context.Background()
	_, items, ledger := newRepos(t)
	logger := helpers.TestLogger()
	inventory := services.NewInventoryService(items, ledger, nil, logger)
	reporting := services.NewReportingService(items, ledger, logger)

	monitor := &domain.Item{Name: "Monitor", Category: domain.CategoryMonitors, AlertThreshold: 3}
	require.NoError(t, inventory.CreateItem(ctx, monitor, "admin@example.com"))

	res, err := inventory.AdjustStock(ctx, domain.Adjustment{
		ItemID: monitor.ID, Type: domain.MovementAdd, Quantity: 10, Actor: "admin@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AdjustmentResult{PreviousQuantity: 0, NewQuantity: 10}, *res)

	history, err := ledger.FindByItem(ctx, monitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.MovementAdd, history[0].Type)
	assert.Equal(t, 0, history[0].PreviousQuantity)
	assert.Equal(t, 10, history[0].NewQuantity)

	due := time.Now().UTC().Add(7 * 24 * time.Hour)
	res, err = inventory.AdjustStock(ctx, domain.Adjustment{
		ItemID: monitor.ID, Type: domain.MovementRemove, Quantity: 8,
		Person: "Alice", ExpectedReturnDate: &due, Actor: "tech@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewQuantity)

	stored, err := items.FindByID(ctx, monitor.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLowStock())

	loans, err := reporting.Loans(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "Alice", loans[0].Person)
	require.Len(t, loans[0].Loans, 1)
	assert.Equal(t, "Monitor", loans[0].Loans[0].ItemName)
	assert.Equal(t, 8, loans[0].Loans[0].Quantity)
	assert.False(t, loans[0].Loans[0].Overdue)

	_, err = inventory.AdjustStock(ctx, domain.Adjustment{
		ItemID: monitor.ID, Type: domain.MovementRemove, Quantity: 5,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)

	stored, err = items.FindByID(ctx, monitor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)

	history, err = ledger.FindByItem(ctx, monitor.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	replayed, err := domain.ReplayLedger(monitor.ID, history)
	require.NoError(t, err)
	assert.Equal(t, stored.Quantity, replayed)
}

func TestAdjust_ConcurrentRemovesNeverOversell(t *testing.T) {
	ctx := context.Background()
	_, items, ledger := newRepos(t)
	inventory := services.NewInventoryService(items, ledger, nil, helpers.TestLogger())

	item := helpers.CreateTestItem()
	helpers.SeedItems(t, items, []*domain.Item{item})

	const workers = 20
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		applied      int
		insufficient int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inventory.AdjustStock(ctx, domain.Adjustment{
				ItemID: item.ID, Type: domain.MovementRemove, Quantity: 1,
			})

			mu.Lock()
			defer mu.Unlock()
			var stockErr *domain.InsufficientStockError
			switch {
			case err == nil:
				applied++
			case errors.As(err, &stockErr):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, applied)
	assert.Equal(t, 10, insufficient)

	stored, err := items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Quantity)

	entries, err := ledger.FindByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 11)

	replayed, err := domain.ReplayLedger(item.ID, entries)
	require.NoError(t, err)
	assert.Zero(t, replayed)
}

func TestAdjust_LedgerFailureRollsBackQuantity(t *testing.T) {
	ctx := context.Background()
	database, items, ledger := newRepos(t)
	inventory := services.NewInventoryService(items, ledger, nil, helpers.TestLogger())

	item := helpers.CreateTestItem()
	helpers.SeedItems(t, items, []*domain.Item{item})

	_, err := database.DB().ExecContext(ctx, `
		CREATE TRIGGER fail_ledger BEFORE INSERT ON stock_history
		WHEN NEW.note = 'boom'
		BEGIN
			SELECT RAISE(ABORT, 'injected failure');
		END;`)
	require.NoError(t, err)

	_, err = inventory.AdjustStock(ctx, domain.Adjustment{
		ItemID: item.ID, Type: domain.MovementRemove, Quantity: 4, Note: "boom",
	})
	var persistence *domain.PersistenceError
	require.ErrorAs(t, err, &persistence)

	stored, err := items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)

	entries, err := ledger.FindByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = inventory.AdjustStock(ctx, domain.Adjustment{
		ItemID: item.ID, Type: domain.MovementRemove, Quantity: 4, Note: "ok",
	})
	require.NoError(t, err)
}

func TestAdjust_RejectedRemoveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	_, items, ledger := newRepos(t)

	item := helpers.CreateTestItem(func(i *domain.Item) { i.Quantity = 1 })
	helpers.SeedItems(t, items, []*domain.Item{item})

	adj := domain.Adjustment{ItemID: item.ID, Type: domain.MovementRemove, Quantity: 2}
	_, err := items.Adjust(ctx, item.ID, func(current *domain.Item) (*domain.MovementEntry, error) {
		return adj.Apply(current.Quantity, time.Now().UTC())
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	stored, err := items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)

	entries, err := ledger.FindByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerRepository_FindSince(t *testing.T) {
	ctx := context.Background()
	_, items, ledger := newRepos(t)

	seed := helpers.CreateTestItems(4)
	helpers.SeedItems(t, items, seed)

	all, err := ledger.FindSince(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	withStock := 0
	for _, item := range seed {
		if item.Quantity > 0 {
			withStock++
		}
	}
	assert.Len(t, all, withStock)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	none, err := ledger.FindSince(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedgerRepository_FindLoans(t *testing.T) {
	ctx := context.Background()
	_, items, ledger := newRepos(t)

	laptop := helpers.CreateTestItem(func(i *domain.Item) { i.Name = "Latitude 5440" })
	helpers.SeedItems(t, items, []*domain.Item{laptop})

	due := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	adjustments := []domain.Adjustment{
		{ItemID: laptop.ID, Type: domain.MovementRemove, Quantity: 1, Person: "Bob", ExpectedReturnDate: &due},
		{ItemID: laptop.ID, Type: domain.MovementRemove, Quantity: 2},
		{ItemID: laptop.ID, Type: domain.MovementAdd, Quantity: 1, Person: "Bob"},
	}
	for _, adj := range adjustments {
		adj := adj
		require.NoError(t, adj.Validate())
		_, err := items.Adjust(ctx, laptop.ID, func(current *domain.Item) (*domain.MovementEntry, error) {
			return adj.Apply(current.Quantity, time.Now().UTC())
		})
		require.NoError(t, err)
	}

	records, err := ledger.FindLoans(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bob", records[0].Entry.Person)
	assert.Equal(t, "Latitude 5440", records[0].ItemName)
	require.NotNil(t, records[0].Entry.ExpectedReturnDate)
	assert.True(t, due.Equal(*records[0].Entry.ExpectedReturnDate))

	groups := domain.GroupLoans(records, time.Now())
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].OverdueCount)
}
