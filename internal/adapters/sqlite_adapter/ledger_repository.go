// internal/adapters/sqlite_adapter/ledger_repository.go
package sqlite_adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

var movementColumns = []string{
	"h.id", "h.item_id", "h.type", "h.quantity", "h.previous_quantity", "h.new_quantity",
	"h.note", "h.person", "h.expected_return_date", "h.date", "h.user_email",
}

// ledgerRepository implements ports.LedgerRepository on SQLite
type ledgerRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *Database, logger *slog.Logger) ports.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "ledger")),
	}
}

// insertMovement appends one entry inside tx and sets its id
func insertMovement(ctx context.Context, tx *sql.Tx, e *domain.MovementEntry) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO stock_history (
			item_id, type, quantity, previous_quantity, new_quantity,
			note, person, expected_return_date, date, user_email
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ItemID, string(e.Type), e.Quantity, e.PreviousQuantity, e.NewQuantity,
		e.Note, e.Person, e.ExpectedReturnDate, e.Date, e.Actor,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read ledger entry id: %w", err)
	}
	e.ID = id
	return nil
}

func scanMovement(row rowScanner, extra ...interface{}) (domain.MovementEntry, error) {
	var e domain.MovementEntry
	dest := []interface{}{
		&e.ID, &e.ItemID, &e.Type, &e.Quantity, &e.PreviousQuantity, &e.NewQuantity,
		&e.Note, &e.Person, &e.ExpectedReturnDate, &e.Date, &e.Actor,
	}
	err := row.Scan(append(dest, extra...)...)
	return e, err
}

func (r *ledgerRepository) query(ctx context.Context, op string, qb squirrel.SelectBuilder) ([]domain.MovementEntry, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}
	defer rows.Close()

	entries := make([]domain.MovementEntry, 0)
	for rows.Next() {
		e, err := scanMovement(rows)
		if err != nil {
			return nil, domain.NewPersistenceError(op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}
	return entries, nil
}

// FindByItem returns one item's entries in id order
func (r *ledgerRepository) FindByItem(ctx context.Context, itemID string) ([]domain.MovementEntry, error) {
	return r.query(ctx, "item history", sq.Select(movementColumns...).
		From("stock_history h").
		Where(squirrel.Eq{"h.item_id": itemID}).
		OrderBy("h.id ASC"))
}

// FindSince returns entries dated at or after since in id order
func (r *ledgerRepository) FindSince(ctx context.Context, since time.Time) ([]domain.MovementEntry, error) {
	return r.query(ctx, "ledger window", sq.Select(movementColumns...).
		From("stock_history h").
		Where(squirrel.GtOrEq{"h.date": since.UTC()}).
		OrderBy("h.id ASC"))
}

// FindLoans returns removals carrying a borrower, with the item name
func (r *ledgerRepository) FindLoans(ctx context.Context) ([]domain.LoanRecord, error) {
	query, args, err := sq.Select(append(movementColumns, "i.name")...).
		From("stock_history h").
		Join("items i ON i.id = h.item_id").
		Where(squirrel.Eq{"h.type": string(domain.MovementRemove)}).
		Where(squirrel.NotEq{"h.person": ""}).
		OrderBy("h.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("loans", err)
	}
	defer rows.Close()

	records := make([]domain.LoanRecord, 0)
	for rows.Next() {
		var name string
		e, err := scanMovement(rows, &name)
		if err != nil {
			return nil, domain.NewPersistenceError("loans", err)
		}
		records = append(records, domain.LoanRecord{Entry: e, ItemName: name})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("loans", err)
	}

	r.logger.DebugContext(ctx, "loan entries loaded", slog.Int("count", len(records)))
	return records, nil
}
