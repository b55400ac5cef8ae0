// internal/workers/notifier.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/pank1717/Stocks-sub000/internal/adapters/redis_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// TaskEnqueuer is the part of *asynq.Client the notifier needs
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AlertNotifier turns low-stock notifications into background tasks. At most
// one task per item is enqueued per dedup window.
type AlertNotifier struct {
	client TaskEnqueuer
	cache  ports.CacheRepository
	window time.Duration
	logger *slog.Logger
}

// Statically assert that *AlertNotifier implements the StockNotifier interface.
var _ ports.StockNotifier = (*AlertNotifier)(nil)

// NewAlertNotifier creates a notifier. A zero window disables deduplication.
func NewAlertNotifier(client TaskEnqueuer, cache ports.CacheRepository, window time.Duration, logger *slog.Logger) *AlertNotifier {
	return &AlertNotifier{
		client: client,
		cache:  cache,
		window: window,
		logger: logger.With(slog.String("component", "alert_notifier")),
	}
}

// NotifyLowStock enqueues an alert task for item unless one was enqueued
// within the dedup window
func (n *AlertNotifier) NotifyLowStock(ctx context.Context, item *domain.Item) error {
	deduped := n.window > 0 && n.cache != nil
	key := redis_a.BuildKey(redis_a.PrefixAlertDedup, item.ID)
	if deduped {
		fresh, err := n.cache.SetNX(ctx, key, item.Quantity, n.window)
		if err != nil {
			return fmt.Errorf("failed to check alert dedup: %w", err)
		}
		if !fresh {
			n.logger.DebugContext(ctx, "low stock alert already pending",
				slog.String("item_id", item.ID))
			return nil
		}
	}

	task, err := NewLowStockAlertTask(item.ID)
	if err != nil {
		return err
	}

	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		// release the claim so the next transition can retry
		if deduped {
			if delErr := n.cache.Delete(ctx, key); delErr != nil {
				n.logger.WarnContext(ctx, "failed to release alert dedup key",
					slog.String("item_id", item.ID),
					slog.String("error", delErr.Error()))
			}
		}
		return fmt.Errorf("failed to enqueue low stock alert: %w", err)
	}

	n.logger.InfoContext(ctx, "low stock alert enqueued",
		slog.String("item_id", item.ID),
		slog.Int("quantity", item.Quantity),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}
