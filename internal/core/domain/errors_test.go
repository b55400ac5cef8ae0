package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

func TestNewPersistenceError(t *testing.T) {
	assert.NoError(t, domain.NewPersistenceError("op", nil))

	wrapped := fmt.Errorf("wrapped: %w", domain.NewItemNotFound("x"))
	assert.Equal(t, wrapped, domain.NewPersistenceError("op", wrapped))

	cause := errors.New("socket closed")
	err := domain.NewPersistenceError("list items", cause)
	var persistence *domain.PersistenceError
	assert.ErrorAs(t, err, &persistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persistence error during list items: socket closed", err.Error())
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, domain.IsDomainError(domain.NewValidationError("f", "m")))
	assert.True(t, domain.IsDomainError(fmt.Errorf("x: %w", &domain.InsufficientStockError{})))
	assert.False(t, domain.IsDomainError(errors.New("plain")))
}
