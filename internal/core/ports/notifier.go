// internal/core/ports/notifier.go
package ports

import (
	"context"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

// StockNotifier is told about items that ended an adjustment at or below
// their alert threshold.
type StockNotifier interface {
	NotifyLowStock(ctx context.Context, item *domain.Item) error
}

// RecentAlertsKey is the capped list holding the latest StockAlert records,
// newest first.
const RecentAlertsKey = "alerts:recent"
