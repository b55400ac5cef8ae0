// internal/adapters/redis_adapter/session_store.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

// SessionStore keeps sessions as JSON values that Redis expires after ttl
type SessionStore struct {
	cache  ports.CacheRepository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store on top of cache
func NewSessionStore(cache ports.CacheRepository, ttl time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "sessions")),
	}
}

func sessionKey(id string) string {
	return BuildKey(PrefixSession, id)
}

// Create persists a new session for principal
func (s *SessionStore) Create(ctx context.Context, principal domain.Principal) (*domain.Session, error) {
	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.cache.SetWithTTL(ctx, sessionKey(session.ID), session, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.InfoContext(ctx, "session created",
		slog.String("user_email", principal.Email),
		slog.String("role", string(principal.Role)))

	return session, nil
}

// Get returns the session with id, or ports.ErrSessionNotFound
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrSessionNotFound
	}

	var session domain.Session
	if err := s.cache.Get(ctx, sessionKey(id), &session); err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Expired(s.now()) {
		return nil, ports.ErrSessionNotFound
	}

	return &session, nil
}

// Delete removes the session; unknown ids are not an error
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
