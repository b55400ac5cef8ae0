// internal/core/ports/session_store.go
package ports

import (
	"context"
	"errors"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists login sessions outside the process.
type SessionStore interface {
	Create(ctx context.Context, principal domain.Principal) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
