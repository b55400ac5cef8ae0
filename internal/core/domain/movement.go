// internal/core/domain/movement.go
package domain

import (
	"strconv"
	"strings"
	"time"
)

// NoteInitialStock is the note carried by the entry written when an item is
// created with a non-zero quantity.
const NoteInitialStock = "initial stock"

// MovementType is the direction of a stock change.
type MovementType string

const (
	MovementAdd    MovementType = "add"
	MovementRemove MovementType = "remove"
)

// IsValid reports whether t is add or remove.
func (t MovementType) IsValid() bool {
	return t == MovementAdd || t == MovementRemove
}

// MovementEntry is one immutable ledger record. ID order is the canonical order.
type MovementEntry struct {
	ID                 int64        `json:"id"`
	ItemID             string       `json:"itemId"`
	Type               MovementType `json:"type"`
	Quantity           int          `json:"quantity"`
	PreviousQuantity   int          `json:"previousQuantity"`
	NewQuantity        int          `json:"newQuantity"`
	Note               string       `json:"note,omitempty"`
	Person             string       `json:"person,omitempty"`
	ExpectedReturnDate *time.Time   `json:"expectedReturnDate,omitempty"`
	Date               time.Time    `json:"date"`
	Actor              string       `json:"actor,omitempty"`
}

// IsLoan reports whether the entry is a removal attributed to a borrower.
func (e *MovementEntry) IsLoan() bool {
	return e.Type == MovementRemove && e.Person != ""
}

// Adjustment is a request to add or remove units of one item.
type Adjustment struct {
	ItemID             string
	Type               MovementType
	Quantity           int
	Note               string
	Person             string
	ExpectedReturnDate *time.Time
	Actor              string
}

// Validate checks the request independently of any item state and normalizes
// the borrower fields: they only survive on removals.
func (a *Adjustment) Validate() error {
	if a.ItemID == "" {
		return NewValidationError("id", "is required")
	}
	if !a.Type.IsValid() {
		return NewValidationError("type", "must be add or remove")
	}
	if a.Quantity <= 0 {
		return NewValidationError("quantity", "must be a positive integer")
	}
	if a.Quantity > MaxQuantity {
		return NewValidationError("quantity", "cannot exceed "+maxQuantityText)
	}

	a.Person = strings.TrimSpace(a.Person)
	if a.Type == MovementAdd {
		a.Person = ""
	}
	if a.Person == "" {
		a.ExpectedReturnDate = nil
	}
	if a.ExpectedReturnDate != nil {
		due := ReturnDay(*a.ExpectedReturnDate)
		a.ExpectedReturnDate = &due
	}
	return nil
}

// ReturnDay truncates t to midnight UTC of its UTC calendar day. Return dates
// are stored as days.
func ReturnDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Apply computes the ledger entry produced by this adjustment against the
// current quantity. Nothing is written; a removal beyond the available stock
// yields an InsufficientStockError.
func (a *Adjustment) Apply(current int, now time.Time) (*MovementEntry, error) {
	if a.Type == MovementAdd && current > MaxQuantity-a.Quantity {
		return nil, NewValidationError("quantity",
			"adding "+strconv.Itoa(a.Quantity)+" to "+strconv.Itoa(current)+" would exceed "+maxQuantityText)
	}

	next := current + a.Quantity
	if a.Type == MovementRemove {
		if a.Quantity > current {
			return nil, &InsufficientStockError{
				ItemID:    a.ItemID,
				Available: current,
				Requested: a.Quantity,
			}
		}
		next = current - a.Quantity
	}

	return &MovementEntry{
		ItemID:             a.ItemID,
		Type:               a.Type,
		Quantity:           a.Quantity,
		PreviousQuantity:   current,
		NewQuantity:        next,
		Note:               a.Note,
		Person:             a.Person,
		ExpectedReturnDate: a.ExpectedReturnDate,
		Date:               now,
		Actor:              a.Actor,
	}, nil
}

// AdjustmentResult is returned to callers of a successful adjustment.
type AdjustmentResult struct {
	PreviousQuantity int `json:"previousQuantity"`
	NewQuantity      int `json:"newQuantity"`
}

// ReplayLedger folds entries (in canonical order) from zero and returns the
// resulting quantity. Every entry must chain onto the running total.
func ReplayLedger(itemID string, entries []MovementEntry) (int, error) {
	total := 0
	for _, e := range entries {
		if e.Quantity <= 0 {
			return 0, &LedgerInconsistencyError{ItemID: itemID, EntryID: e.ID, Reason: "non-positive quantity"}
		}
		if e.PreviousQuantity != total {
			return 0, &LedgerInconsistencyError{ItemID: itemID, EntryID: e.ID, Reason: "previous quantity does not match running total"}
		}

		switch e.Type {
		case MovementAdd:
			total += e.Quantity
		case MovementRemove:
			total -= e.Quantity
		default:
			return 0, &LedgerInconsistencyError{ItemID: itemID, EntryID: e.ID, Reason: "unknown movement type"}
		}

		if total < 0 {
			return 0, &LedgerInconsistencyError{ItemID: itemID, EntryID: e.ID, Reason: "negative stock"}
		}
		if e.NewQuantity != total {
			return 0, &LedgerInconsistencyError{ItemID: itemID, EntryID: e.ID, Reason: "new quantity does not match movement"}
		}
	}
	return total, nil
}
