// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown item id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewItemNotFound returns a NotFoundError for an item id.
func NewItemNotFound(id string) *NotFoundError {
	return &NotFoundError{Resource: "item", ID: id}
}

// InsufficientStockError is returned when a removal exceeds the available quantity.
type InsufficientStockError struct {
	ItemID    string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: %d available, %d requested",
		e.ItemID, e.Available, e.Requested)
}

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err unless it already carries a domain error.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// LedgerInconsistencyError reports a broken link while replaying a ledger.
type LedgerInconsistencyError struct {
	ItemID  string
	EntryID int64
	Reason  string
}

func (e *LedgerInconsistencyError) Error() string {
	return fmt.Sprintf("ledger for item %s inconsistent at entry %d: %s", e.ItemID, e.EntryID, e.Reason)
}

// IsDomainError reports whether err is one of the caller-correctable or
// already-classified errors of this package.
func IsDomainError(err error) bool {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		insufficient *InsufficientStockError
		persistence  *PersistenceError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &insufficient) ||
		errors.As(err, &persistence)
}
