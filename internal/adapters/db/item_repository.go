// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

const pgUniqueViolation = "23505"

var itemColumns = []string{
	"id", "name", "model", "quantity", "category", "serial", "location", "supplier",
	"purchase_date", "price", "photo", "notes", "alert_threshold", "created_at", "updated_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// itemRepository implements ports.ItemRepository on Postgres
type itemRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *Database, logger *slog.Logger) ports.ItemRepository {
	return &itemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "items")),
	}
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	item := &domain.Item{}
	err := row.Scan(
		&item.ID, &item.Name, &item.Model, &item.Quantity, &item.Category,
		&item.Serial, &item.Location, &item.Supplier, &item.PurchaseDate,
		&item.Price, &item.Photo, &item.Notes, &item.AlertThreshold,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts the item and its initial entry in one transaction
func (r *itemRepository) Create(ctx context.Context, item *domain.Item, initial *domain.MovementEntry) error {
	query, args, err := psql.Insert("items").
		Columns(itemColumns...).
		Values(
			item.ID, item.Name, item.Model, item.Quantity, string(item.Category),
			item.Serial, item.Location, item.Supplier, item.PurchaseDate,
			item.Price, item.Photo, item.Notes, item.AlertThreshold,
			item.CreatedAt, item.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	err = r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return domain.NewValidationError("id", "item already exists")
			}
			return err
		}

		if initial != nil {
			return insertMovement(ctx, tx, initial)
		}
		return nil
	})
	if err != nil {
		return domain.NewPersistenceError("create item", err)
	}

	r.logger.DebugContext(ctx, "item saved", slog.String("item_id", item.ID))
	return nil
}

// Update writes metadata columns only; quantity belongs to Adjust
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query, args, err := psql.Update("items").
		SetMap(map[string]interface{}{
			"name":            item.Name,
			"model":           item.Model,
			"category":        string(item.Category),
			"serial":          item.Serial,
			"location":        item.Location,
			"supplier":        item.Supplier,
			"purchase_date":   item.PurchaseDate,
			"price":           item.Price,
			"photo":           item.Photo,
			"notes":           item.Notes,
			"alert_threshold": item.AlertThreshold,
			"updated_at":      item.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return domain.NewPersistenceError("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewItemNotFound(item.ID)
	}

	r.logger.DebugContext(ctx, "item updated", slog.String("item_id", item.ID))
	return nil
}

// Delete removes the item; stock_history rows go with it through ON DELETE CASCADE
func (r *itemRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return domain.NewPersistenceError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewItemNotFound(id)
	}

	r.logger.InfoContext(ctx, "item deleted", slog.String("item_id", id))
	return nil
}

// FindByID retrieves an item by id
func (r *itemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	query, args, err := psql.Select(itemColumns...).From("items").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewItemNotFound(id)
		}
		return nil, domain.NewPersistenceError("find item", err)
	}
	return item, nil
}

// FindAll retrieves items matching the filter ordered by name
func (r *itemRepository) FindAll(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error) {
	qb := applyItemFilter(psql.Select(itemColumns...).From("items"), filter).
		OrderBy("LOWER(name) ASC", "id ASC")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("list items", err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("list items", err)
	}

	return items, nil
}

// Adjust locks the item row with SELECT ... FOR UPDATE so concurrent
// adjustments of the same item queue behind each other. The quantity write
// and the ledger insert commit or roll back together.
func (r *itemRepository) Adjust(ctx context.Context, itemID string, apply ports.AdjustFunc) (*domain.MovementEntry, error) {
	query, args, err := psql.Select(itemColumns...).From("items").
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var stored *domain.MovementEntry
	err = r.db.Transaction(ctx, func(tx pgx.Tx) error {
		current, err := scanItem(tx.QueryRow(ctx, query, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewItemNotFound(itemID)
			}
			return err
		}

		entry, err := apply(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE items SET quantity = $2 WHERE id = $1`, itemID, entry.NewQuantity); err != nil {
			return fmt.Errorf("failed to update quantity: %w", err)
		}

		if err := insertMovement(ctx, tx, entry); err != nil {
			return err
		}

		stored = entry
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("adjust stock", err)
	}

	return stored, nil
}

func applyItemFilter(qb squirrel.SelectBuilder, filter domain.ItemFilter) squirrel.SelectBuilder {
	if filter.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": string(filter.Category)})
	}
	if filter.Location != "" {
		qb = qb.Where("LOWER(location) = LOWER(?)", filter.Location)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		qb = qb.Where(`(name ILIKE ? ESCAPE '\' OR model ILIKE ? ESCAPE '\' OR serial ILIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}

	switch filter.Status {
	case domain.StatusOutOfStock:
		qb = qb.Where("quantity = 0")
	case domain.StatusLowStock:
		qb = qb.Where("quantity > 0 AND quantity <= alert_threshold")
	case domain.StatusInStock:
		qb = qb.Where("quantity > alert_threshold")
	}

	return qb
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
