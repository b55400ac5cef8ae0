// internal/core/ports/inventory_service.go
package ports

import (
	"context"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

// HistoryOrder selects the chronological direction of a history read.
type HistoryOrder string

const (
	HistoryDescending HistoryOrder = "desc"
	HistoryAscending  HistoryOrder = "asc"
)

// ItemDetail is an item together with its full history.
type ItemDetail struct {
	*domain.Item
	History []domain.MovementEntry `json:"history"`
}

// InventoryService defines the application service port for items and stock.
// This interface is implemented by the application service.
type InventoryService interface {
	CreateItem(ctx context.Context, item *domain.Item, actor string) error
	UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*ItemDetail, error)
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error)
	AdjustStock(ctx context.Context, adj domain.Adjustment) (*domain.AdjustmentResult, error)
}

// ReportingService defines the read-side port. Every call is a fresh scan.
type ReportingService interface {
	Statistics(ctx context.Context) (*domain.Statistics, error)
	Alerts(ctx context.Context) ([]*domain.Item, error)
	Loans(ctx context.Context, now time.Time) ([]domain.BorrowerLoans, error)
	History(ctx context.Context, itemID string, order HistoryOrder) ([]domain.MovementEntry, error)
}
