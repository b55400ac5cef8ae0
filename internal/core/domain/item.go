// internal/core/domain/item.go
package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAlertThreshold is used when an item is created without a threshold.
const DefaultAlertThreshold = 5

// MaxQuantity is the largest stock level or threshold the INTEGER columns hold.
const MaxQuantity = math.MaxInt32

var maxQuantityText = strconv.Itoa(MaxQuantity)

// Category is one of the fixed equipment category codes.
type Category string

// Category constants
const (
	CategoryComputers   Category = "ordinateurs"
	CategoryLaptops     Category = "portables"
	CategoryMonitors    Category = "ecrans"
	CategoryPeripherals Category = "peripheriques"
	CategoryNetwork     Category = "reseau"
	CategoryStorage     Category = "stockage"
	CategoryComponents  Category = "composants"
	CategoryCables      Category = "cables"
	CategoryTelephony   Category = "telephonie"
	CategoryPrinting    Category = "impression"
	CategoryAudio       Category = "audio"
	CategoryOther       Category = "autre"
)

// Categories lists every valid category code.
var Categories = []Category{
	CategoryComputers, CategoryLaptops, CategoryMonitors, CategoryPeripherals,
	CategoryNetwork, CategoryStorage, CategoryComponents, CategoryCables,
	CategoryTelephony, CategoryPrinting, CategoryAudio, CategoryOther,
}

// IsValid reports whether c is a known category code.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StockStatus classifies an item's current quantity.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// IsValid reports whether s is a known stock status.
func (s StockStatus) IsValid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock:
		return true
	}
	return false
}

// Item is a tracked equipment type with an aggregate quantity.
// Quantity is a projection of the item's ledger.
type Item struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Model          string          `json:"model,omitempty"`
	Category       Category        `json:"category"`
	Serial         string          `json:"serial,omitempty"`
	Location       string          `json:"location,omitempty"`
	Supplier       string          `json:"supplier,omitempty"`
	PurchaseDate   *time.Time      `json:"purchaseDate,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Photo          string          `json:"photo,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Quantity       int             `json:"quantity"`
	AlertThreshold int             `json:"alertThreshold"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Validate performs domain validation on the item.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if i.Category == "" {
		return NewValidationError("category", "is required")
	}
	if !i.Category.IsValid() {
		return NewValidationError("category", "unknown category "+string(i.Category))
	}
	if i.Quantity < 0 {
		return NewValidationError("quantity", "cannot be negative")
	}
	if i.Quantity > MaxQuantity {
		return NewValidationError("quantity", "cannot exceed "+maxQuantityText)
	}
	if i.AlertThreshold < 0 {
		return NewValidationError("alertThreshold", "cannot be negative")
	}
	if i.AlertThreshold > MaxQuantity {
		return NewValidationError("alertThreshold", "cannot exceed "+maxQuantityText)
	}
	if i.Price.IsNegative() {
		return NewValidationError("price", "cannot be negative")
	}
	return nil
}

// PrepareForStorage assigns an id and timestamps to a new item.
func (i *Item) PrepareForStorage(now time.Time) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	i.Name = strings.TrimSpace(i.Name)
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

// Status returns the stock classification of the item.
func (i *Item) Status() StockStatus {
	switch {
	case i.Quantity == 0:
		return StatusOutOfStock
	case i.Quantity <= i.AlertThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// IsLowStock reports 0 < quantity <= alertThreshold.
func (i *Item) IsLowStock() bool {
	return i.Status() == StatusLowStock
}

// IsOutOfStock reports quantity == 0.
func (i *Item) IsOutOfStock() bool {
	return i.Quantity == 0
}

// Value is quantity times unit price.
func (i *Item) Value() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// InitialEntry returns the synthetic ledger entry for an item created with
// stock, or nil when the item starts empty.
func (i *Item) InitialEntry(actor string) *MovementEntry {
	if i.Quantity <= 0 {
		return nil
	}
	return &MovementEntry{
		ItemID:           i.ID,
		Type:             MovementAdd,
		Quantity:         i.Quantity,
		PreviousQuantity: 0,
		NewQuantity:      i.Quantity,
		Note:             NoteInitialStock,
		Date:             i.CreatedAt,
		Actor:            actor,
	}
}

// ItemPatch holds the metadata fields of an edit. Nil fields are left untouched.
type ItemPatch struct {
	Name           *string
	Model          *string
	Category       *Category
	Serial         *string
	Location       *string
	Supplier       *string
	PurchaseDate   *time.Time
	Price          *decimal.Decimal
	Photo          *string
	Notes          *string
	AlertThreshold *int
}

// Apply merges the patch into item and validates the result. Quantity is never touched.
func (p ItemPatch) Apply(item *Item, now time.Time) error {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Model != nil {
		item.Model = *p.Model
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Serial != nil {
		item.Serial = *p.Serial
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.Supplier != nil {
		item.Supplier = *p.Supplier
	}
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		item.PurchaseDate = &d
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Photo != nil {
		item.Photo = *p.Photo
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.AlertThreshold != nil {
		item.AlertThreshold = *p.AlertThreshold
	}

	if err := item.Validate(); err != nil {
		return err
	}
	item.UpdatedAt = now
	return nil
}

// ItemFilter narrows a listing.
type ItemFilter struct {
	Category Category
	Search   string
	Status   StockStatus
	Location string
}
