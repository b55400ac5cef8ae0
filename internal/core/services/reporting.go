// internal/core/services/reporting.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// ReportingService derives statistics, alerts, loans and history from the
// item store and the ledger. Nothing is cached between calls.
type ReportingService struct {
	items  ports.ItemRepository
	ledger ports.LedgerRepository
	logger *slog.Logger
}

var _ ports.ReportingService = (*ReportingService)(nil)

// NewReportingService creates a new reporting service
func NewReportingService(items ports.ItemRepository, ledger ports.LedgerRepository, logger *slog.Logger) *ReportingService {
	return &ReportingService{
		items:  items,
		ledger: ledger,
		logger: logger.With(slog.String("service", "reporting")),
	}
}

// Statistics scans every item.
func (s *ReportingService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	items, err := s.items.FindAll(ctx, domain.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load items for statistics: %w", err)
	}

	stats := domain.ComputeStatistics(items)
	return &stats, nil
}

// Alerts returns low-stock items, lowest quantity first.
func (s *ReportingService) Alerts(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.items.FindAll(ctx, domain.ItemFilter{Status: domain.StatusLowStock})
	if err != nil {
		return nil, fmt.Errorf("failed to load items for alerts: %w", err)
	}
	return domain.LowStockAlerts(items), nil
}

// Loans groups borrower removals by person as of now.
func (s *ReportingService) Loans(ctx context.Context, now time.Time) ([]domain.BorrowerLoans, error) {
	records, err := s.ledger.FindLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan entries: %w", err)
	}

	loans := domain.GroupLoans(records, now)

	s.logger.DebugContext(ctx, "computed loans view",
		slog.Int("entries", len(records)),
		slog.Int("borrowers", len(loans)))

	return loans, nil
}

// History returns the entries of one item ordered by date.
func (s *ReportingService) History(ctx context.Context, itemID string, order ports.HistoryOrder) ([]domain.MovementEntry, error) {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	entries, err := s.ledger.FindByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	domain.SortHistory(entries, order != ports.HistoryAscending)
	return entries, nil
}

// VerifyLedger replays the ledger of every item and reports the items whose
// ledger does not reproduce their stored quantity.
func (s *ReportingService) VerifyLedger(ctx context.Context) (map[string]error, error) {
	items, err := s.items.FindAll(ctx, domain.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	problems := make(map[string]error)
	for _, item := range items {
		entries, err := s.ledger.FindByItem(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger for %s: %w", item.ID, err)
		}

		replayed, err := domain.ReplayLedger(item.ID, entries)
		if err != nil {
			problems[item.ID] = err
			continue
		}
		if replayed != item.Quantity {
			problems[item.ID] = &domain.LedgerInconsistencyError{
				ItemID: item.ID,
				Reason: fmt.Sprintf("ledger replays to %d, item holds %d", replayed, item.Quantity),
			}
		}
	}

	if len(problems) > 0 {
		s.logger.WarnContext(ctx, "ledger verification found inconsistencies",
			slog.Int("items", len(problems)))
	}

	return problems, nil
}
