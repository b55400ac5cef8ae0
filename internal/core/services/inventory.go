// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// InventoryService handles item and stock business logic
type InventoryService struct {
	items    ports.ItemRepository
	ledger   ports.LedgerRepository
	notifier ports.StockNotifier
	recorder AdjustmentRecorder
	now      func() time.Time
	logger   *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. notifier may be nil.
func NewInventoryService(
	items ports.ItemRepository,
	ledger ports.LedgerRepository,
	notifier ports.StockNotifier,
	logger *slog.Logger,
	opts ...Option,
) *InventoryService {
	s := &InventoryService{
		items:    items,
		ledger:   ledger,
		notifier: notifier,
		recorder: noopRecorder{},
		now:      time.Now,
		logger:   logger.With(slog.String("service", "inventory")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItem validates and stores a new item. A positive starting quantity is
// recorded as an "initial stock" entry in the same transaction.
func (s *InventoryService) CreateItem(ctx context.Context, item *domain.Item, actor string) error {
	if err := item.Validate(); err != nil {
		return err
	}

	item.PrepareForStorage(s.now().UTC())

	if err := s.items.Create(ctx, item, item.InitialEntry(actor)); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.InfoContext(ctx, "created item",
		slog.String("item_id", item.ID),
		slog.String("name", item.Name),
		slog.Int("quantity", item.Quantity))

	return nil
}

// UpdateItem merges metadata into an existing item. Quantity is never changed here.
func (s *InventoryService) UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := patch.Apply(item, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated item", slog.String("item_id", id))

	return item, nil
}

// DeleteItem removes an item and its whole ledger.
func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted item", slog.String("item_id", id))

	return nil
}

// GetItem returns one item with its history, most recent first.
func (s *InventoryService) GetItem(ctx context.Context, id string) (*ports.ItemDetail, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.ledger.FindByItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	domain.SortHistory(history, true)

	return &ports.ItemDetail{Item: item, History: history}, nil
}

// ListItems returns items matching filter, without history.
func (s *InventoryService) ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, domain.NewValidationError("category", "unknown category "+string(filter.Category))
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown status "+string(filter.Status))
	}

	items, err := s.items.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// AdjustStock applies one add or remove movement. The read of the current
// quantity, the quantity write and the ledger append form a single
// transaction in the repository; any failure leaves the item untouched.
func (s *InventoryService) AdjustStock(ctx context.Context, adj domain.Adjustment) (*domain.AdjustmentResult, error) {
	if err := adj.Validate(); err != nil {
		s.recorder.RecordAdjustment(string(adj.Type), OutcomeRejected)
		return nil, err
	}

	var after domain.Item
	entry, err := s.items.Adjust(ctx, adj.ItemID, func(current *domain.Item) (*domain.MovementEntry, error) {
		e, err := adj.Apply(current.Quantity, s.now().UTC())
		if err != nil {
			return nil, err
		}
		after = *current
		after.Quantity = e.NewQuantity
		return e, nil
	})
	if err != nil {
		s.recorder.RecordAdjustment(string(adj.Type), adjustmentOutcome(err))

		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.logger.InfoContext(ctx, "stock adjustment rejected",
				slog.String("item_id", adj.ItemID),
				slog.Int("available", insufficient.Available),
				slog.Int("requested", insufficient.Requested))
		}
		return nil, err
	}

	s.recorder.RecordAdjustment(string(adj.Type), OutcomeApplied)
	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("item_id", adj.ItemID),
		slog.String("type", string(entry.Type)),
		slog.Int("quantity", entry.Quantity),
		slog.Int("previous_quantity", entry.PreviousQuantity),
		slog.Int("new_quantity", entry.NewQuantity),
		slog.Int64("entry_id", entry.ID))

	if entry.Type == domain.MovementRemove && after.Status() != domain.StatusInStock {
		s.notifyLowStock(ctx, &after)
	}

	return &domain.AdjustmentResult{
		PreviousQuantity: entry.PreviousQuantity,
		NewQuantity:      entry.NewQuantity,
	}, nil
}

// notifyLowStock runs after commit; its failure never fails the adjustment.
func (s *InventoryService) notifyLowStock(ctx context.Context, item *domain.Item) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyLowStock(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue low stock notification",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()))
	}
}

func adjustmentOutcome(err error) string {
	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientStockError
		notFound     *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &insufficient):
		return OutcomeRejected
	case errors.As(err, &notFound):
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}
