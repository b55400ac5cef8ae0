// internal/workers/archive_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pank1717/Stocks-sub000/internal/core/services"
)

// ArchiveProcessor snapshots the ledger to object storage
type ArchiveProcessor struct {
	archiver *services.LedgerArchiver
	now      func() time.Time
	logger   *slog.Logger
}

// NewArchiveProcessor creates a new archive processor
func NewArchiveProcessor(archiver *services.LedgerArchiver, logger *slog.Logger) *ArchiveProcessor {
	return &ArchiveProcessor{
		archiver: archiver,
		now:      time.Now,
		logger:   logger.With(slog.String("processor", "ledger_archive")),
	}
}

// ArchiveLedger writes the entries of the payload window and optionally
// removes archives past their retention
func (p *ArchiveProcessor) ArchiveLedger(ctx context.Context, t *asynq.Task) error {
	var payload LedgerArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Window <= 0 {
		return fmt.Errorf("archive window must be positive: %w", asynq.SkipRetry)
	}

	now := p.now().UTC()
	key, count, err := p.archiver.Archive(ctx, now.Add(-payload.Window), now)
	if err != nil {
		return fmt.Errorf("failed to archive ledger: %w", err)
	}

	p.logger.InfoContext(ctx, "archive run completed",
		slog.String("key", key),
		slog.Int("entries", count),
		slog.Duration("window", payload.Window))

	if !payload.Cleanup {
		return nil
	}

	deleted, err := p.archiver.Cleanup(ctx, payload.Retention, now)
	if err != nil {
		return fmt.Errorf("failed to clean up archives: %w", err)
	}

	p.logger.InfoContext(ctx, "old archives cleaned up",
		slog.Int("archives_deleted", deleted),
		slog.Duration("retention", payload.Retention))
	return nil
}
