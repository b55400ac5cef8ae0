// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeLowStockAlert     = "inventory:low_stock_alert"
	TypeOverdueLoansScan  = "inventory:overdue_loans_scan"
	TypeLedgerArchive     = "inventory:ledger_archive"
	defaultAlertMaxRetry  = 5
	defaultAlertQueue     = "default"
	periodicTasksQueue    = "low"
	defaultArchiveTimeout = 10 * time.Minute
)

// LowStockAlertPayload identifies the item that crossed its threshold
type LowStockAlertPayload struct {
	ItemID string `json:"item_id"`
}

// LedgerArchivePayload configures one archive run
type LedgerArchivePayload struct {
	Window    time.Duration `json:"window"`
	Cleanup   bool          `json:"cleanup"`
	Retention time.Duration `json:"retention,omitempty"`
}

// NewLowStockAlertTask builds the task enqueued after a removal leaves an
// item at or below its threshold
func NewLowStockAlertTask(itemID string) (*asynq.Task, error) {
	payload, err := json.Marshal(LowStockAlertPayload{ItemID: itemID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, payload,
		asynq.MaxRetry(defaultAlertMaxRetry),
		asynq.Queue(defaultAlertQueue),
	), nil
}

// NewOverdueLoansScanTask builds the periodic loan scan task
func NewOverdueLoansScanTask() *asynq.Task {
	return asynq.NewTask(TypeOverdueLoansScan, nil, asynq.Queue(periodicTasksQueue))
}

// NewLedgerArchiveTask builds the periodic ledger archive task
func NewLedgerArchiveTask(p LedgerArchivePayload) (*asynq.Task, error) {
	if p.Window <= 0 {
		return nil, fmt.Errorf("archive window must be positive, got %s", p.Window)
	}
	if p.Cleanup && p.Retention <= 0 {
		return nil, fmt.Errorf("archive retention must be positive when cleanup is enabled")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeLedgerArchive, payload,
		asynq.Queue(periodicTasksQueue),
		asynq.Timeout(defaultArchiveTimeout),
	), nil
}
