// internal/core/services/archive.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// ArchivePrefix is the object key prefix of ledger snapshots.
const ArchivePrefix = "ledger/"

// LedgerArchiver copies recent ledger entries to object storage as JSON lines.
type LedgerArchiver struct {
	ledger  ports.LedgerRepository
	storage ports.ObjectStorage
	logger  *slog.Logger
}

// NewLedgerArchiver creates a new ledger archiver
func NewLedgerArchiver(ledger ports.LedgerRepository, storage ports.ObjectStorage, logger *slog.Logger) *LedgerArchiver {
	return &LedgerArchiver{
		ledger:  ledger,
		storage: storage,
		logger:  logger.With(slog.String("service", "ledger_archive")),
	}
}

// ArchiveKey returns the object key of a snapshot taken at t.
func ArchiveKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%d.jsonl", ArchivePrefix, t.Year(), t.Month(), t.Day(), t.Unix())
}

// Archive writes every entry dated at or after since. An empty window writes
// nothing and returns an empty key.
func (a *LedgerArchiver) Archive(ctx context.Context, since, now time.Time) (string, int, error) {
	entries, err := a.ledger.FindSince(ctx, since)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read ledger: %w", err)
	}
	if len(entries) == 0 {
		a.logger.InfoContext(ctx, "no ledger entries to archive", slog.Time("since", since))
		return "", 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return "", 0, fmt.Errorf("failed to encode entry %d: %w", entries[i].ID, err)
		}
	}

	key := ArchiveKey(now)
	if _, err := a.storage.Upload(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return "", 0, fmt.Errorf("failed to upload archive: %w", err)
	}

	a.logger.InfoContext(ctx, "ledger archived",
		slog.String("key", key),
		slog.Int("entries", len(entries)))

	return key, len(entries), nil
}

// Cleanup deletes snapshots older than retention.
func (a *LedgerArchiver) Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	objects, err := a.storage.List(ctx, ArchivePrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list archives: %w", err)
	}

	cutoff := now.Add(-retention)
	deleted := 0
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := a.storage.Delete(ctx, obj.Key); err != nil {
			a.logger.WarnContext(ctx, "failed to delete archive",
				slog.String("key", obj.Key),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		a.logger.InfoContext(ctx, "old ledger archives deleted", slog.Int("count", deleted))
	}
	return deleted, nil
}

// Archives lists the stored snapshots, oldest first.
func (a *LedgerArchiver) Archives(ctx context.Context) ([]ports.ObjectInfo, error) {
	objects, err := a.storage.List(ctx, ArchivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool {
		if objects[i].LastModified.Equal(objects[j].LastModified) {
			return objects[i].Key < objects[j].Key
		}
		return objects[i].LastModified.Before(objects[j].LastModified)
	})
	return objects, nil
}

// Snapshot reads back the entries stored under key.
func (a *LedgerArchiver) Snapshot(ctx context.Context, key string) ([]domain.MovementEntry, error) {
	data, err := a.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download archive %s: %w", key, err)
	}

	var entries []domain.MovementEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var e domain.MovementEntry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode archive %s: %w", key, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
