package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pank1717/Stocks-sub000/internal/adapters/sqlite_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/services"
	"github.com/pank1717/Stocks-sub000/test/helpers"
)

func newBenchmarkServices(b *testing.B) (*services.InventoryService, *services.ReportingService) {
	b.Helper()

	database := helpers.SetupSQLite(b)
	logger := helpers.TestLogger()
	items := sqlite_adapter.NewItemRepository(database, logger)
	ledger := sqlite_adapter.NewLedgerRepository(database, logger)

	return services.NewInventoryService(items, ledger, nil, logger),
		services.NewReportingService(items, ledger, logger)
}

func BenchmarkInventoryOperations(b *testing.B) {
	inventory, reporting := newBenchmarkServices(b)
	ctx := context.Background()

	b.Run("Create", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			item := helpers.CreateTestItem(func(item *domain.Item) {
				item.ID = uuid.NewString()
				item.Name = fmt.Sprintf("Benchmark Item %d", i)
			})
			_ = inventory.CreateItem(ctx, item, "bench@example.com")
		}
	})

	// Pre-create items for read benchmarks
	var itemIDs []string
	for _, item := range helpers.CreateTestItems(100) {
		item.ID = uuid.NewString()
		if err := inventory.CreateItem(ctx, item, "bench@example.com"); err != nil {
			b.Fatal(err)
		}
		itemIDs = append(itemIDs, item.ID)
	}

	b.Run("Read", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = inventory.GetItem(ctx, itemIDs[i%len(itemIDs)])
		}
	})

	b.Run("List", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = inventory.ListItems(ctx, domain.ItemFilter{})
		}
	})

	b.Run("Search", func(b *testing.B) {
		filter := domain.ItemFilter{
			Search:   "item 04",
			Category: domain.CategoryCables,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = inventory.ListItems(ctx, filter)
		}
	})

	b.Run("AdjustStock", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = inventory.AdjustStock(ctx, domain.Adjustment{
				ItemID:   itemIDs[i%len(itemIDs)],
				Type:     domain.MovementAdd,
				Quantity: 1,
				Note:     "restock",
				Actor:    "bench@example.com",
			})
		}
	})

	b.Run("Statistics", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reporting.Statistics(ctx)
		}
	})

	b.Run("Alerts", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reporting.Alerts(ctx)
		}
	})
}

func BenchmarkConcurrentRemove(b *testing.B) {
	inventory, _ := newBenchmarkServices(b)
	ctx := context.Background()

	item := helpers.CreateTestItem(func(item *domain.Item) {
		item.Quantity = 1 << 30
	})
	if err := inventory.CreateItem(ctx, item, "bench@example.com"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = inventory.AdjustStock(ctx, domain.Adjustment{
				ItemID:   item.ID,
				Type:     domain.MovementRemove,
				Quantity: 1,
				Actor:    "bench@example.com",
			})
		}
	})
}

func BenchmarkComputeStatistics(b *testing.B) {
	items := helpers.CreateTestItems(1000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = domain.ComputeStatistics(items)
	}
}

func BenchmarkReplayLedger(b *testing.B) {
	const itemID = "bench-item"
	now := time.Now().UTC()

	entries := make([]domain.MovementEntry, 0, 1000)
	qty := 0
	for i := 0; i < 1000; i++ {
		entry := domain.MovementEntry{
			ID:               int64(i + 1),
			ItemID:           itemID,
			Type:             domain.MovementAdd,
			Quantity:         2,
			PreviousQuantity: qty,
			Date:             now.Add(time.Duration(i) * time.Second),
		}
		if i%3 == 2 {
			entry.Type = domain.MovementRemove
			entry.Quantity = 1
		}
		if entry.Type == domain.MovementAdd {
			qty += entry.Quantity
		} else {
			qty -= entry.Quantity
		}
		entry.NewQuantity = qty
		entries = append(entries, entry)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = domain.ReplayLedger(itemID, entries)
	}
}

// Memory allocation benchmarks
func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("Item", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = &domain.Item{
				ID:             uuid.NewString(),
				Name:           "Test Item",
				Category:       domain.CategoryCables,
				Quantity:       1,
				AlertThreshold: domain.DefaultAlertThreshold,
				Price:          decimal.NewFromFloat(12.5),
			}
		}
	})

	b.Run("LowStockAlerts", func(b *testing.B) {
		items := helpers.CreateTestItems(500)

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = domain.LowStockAlerts(items)
		}
	})
}
