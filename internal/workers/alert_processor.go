// internal/workers/alert_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// AlertProcessor records low-stock alerts
type AlertProcessor struct {
	items    ports.ItemRepository
	cache    ports.CacheRepository
	capacity int64
	now      func() time.Time
	logger   *slog.Logger
}

// NewAlertProcessor creates a new alert processor. capacity bounds the
// recent alerts list.
func NewAlertProcessor(items ports.ItemRepository, cache ports.CacheRepository, capacity int64, logger *slog.Logger) *AlertProcessor {
	return &AlertProcessor{
		items:    items,
		cache:    cache,
		capacity: capacity,
		now:      time.Now,
		logger:   logger.With(slog.String("processor", "low_stock_alert")),
	}
}

// ProcessLowStockAlert re-reads the item and records an alert if it is
// still at or below its threshold. Stock may have been replenished since the
// task was enqueued.
func (p *AlertProcessor) ProcessLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ItemID == "" {
		return fmt.Errorf("missing item id: %w", asynq.SkipRetry)
	}

	item, err := p.items.FindByID(ctx, payload.ItemID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			p.logger.InfoContext(ctx, "item deleted before alert was processed",
				slog.String("item_id", payload.ItemID))
			return nil
		}
		return fmt.Errorf("failed to load item: %w", err)
	}

	if item.Status() == domain.StatusInStock {
		p.logger.InfoContext(ctx, "item replenished, alert dropped",
			slog.String("item_id", item.ID),
			slog.Int("quantity", item.Quantity))
		return nil
	}

	alert := domain.NewStockAlert(item, p.now().UTC())
	if err := p.cache.PushCapped(ctx, ports.RecentAlertsKey, alert, p.capacity); err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}

	p.logger.WarnContext(ctx, "low stock alert",
		slog.String("item_id", item.ID),
		slog.String("item_name", item.Name),
		slog.String("status", string(alert.Status)),
		slog.Int("quantity", item.Quantity),
		slog.Int("alert_threshold", item.AlertThreshold))
	return nil
}
