// internal/core/ports/repository.go
package ports

import (
	"context"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

// AdjustFunc computes the ledger entry for an item locked by the repository.
// Returning an error aborts the transaction.
type AdjustFunc func(current *domain.Item) (*domain.MovementEntry, error)

// ItemRepository defines the persistence port for items.
// This interface is implemented by the database adapters.
type ItemRepository interface {
	// Create inserts item and, when initial is not nil, its first ledger entry
	// in the same transaction.
	Create(ctx context.Context, item *domain.Item, initial *domain.MovementEntry) error
	Update(ctx context.Context, item *domain.Item) error
	// Delete removes the item together with its ledger entries.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	FindAll(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error)
	// Adjust locks the item, calls apply and persists the new quantity and the
	// returned entry atomically. The stored entry (with its id) is returned.
	Adjust(ctx context.Context, itemID string, apply AdjustFunc) (*domain.MovementEntry, error)
}

// LedgerRepository defines the read port for movement history.
type LedgerRepository interface {
	// FindByItem returns the entries of one item in id order.
	FindByItem(ctx context.Context, itemID string) ([]domain.MovementEntry, error)
	// FindLoans returns every removal carrying a borrower, joined with item names.
	FindLoans(ctx context.Context) ([]domain.LoanRecord, error)
	// FindSince returns every entry dated at or after since, in id order.
	FindSince(ctx context.Context, since time.Time) ([]domain.MovementEntry, error)
}
