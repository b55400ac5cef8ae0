// internal/workers/loans_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// LoanScanProcessor reports borrowers with overdue loans
type LoanScanProcessor struct {
	reports ports.ReportingService
	now     func() time.Time
	logger  *slog.Logger
}

// NewLoanScanProcessor creates a new loan scan processor
func NewLoanScanProcessor(reports ports.ReportingService, logger *slog.Logger) *LoanScanProcessor {
	return &LoanScanProcessor{
		reports: reports,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "overdue_loans")),
	}
}

// ScanOverdueLoans logs one record per borrower holding overdue loans
func (p *LoanScanProcessor) ScanOverdueLoans(ctx context.Context, _ *asynq.Task) error {
	borrowers, err := p.reports.Loans(ctx, p.now())
	if err != nil {
		return fmt.Errorf("failed to compute loans: %w", err)
	}

	overdueBorrowers := 0
	for _, b := range borrowers {
		if b.OverdueCount == 0 {
			continue
		}
		overdueBorrowers++

		items := make([]string, 0, b.OverdueCount)
		for _, loan := range b.Loans {
			if loan.Overdue {
				items = append(items, loan.ItemName)
			}
		}

		p.logger.WarnContext(ctx, "overdue loans",
			slog.String("person", b.Person),
			slog.Int("overdue_count", b.OverdueCount),
			slog.Int("total_units", b.TotalUnits),
			slog.Any("items", items))
	}

	p.logger.InfoContext(ctx, "loan scan completed",
		slog.Int("borrowers", len(borrowers)),
		slog.Int("overdue_borrowers", overdueBorrowers))
	return nil
}
