// internal/handlers/session.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/handlers/middleware"
)

// SessionHandler exchanges authenticated requests for cookie sessions
type SessionHandler struct {
	store  ports.SessionStore
	cookie string
	secure bool
	logger *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store ports.SessionStore, cookie string, secure bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		cookie: cookie,
		secure: secure,
		logger: logger.With(slog.String("handler", "session")),
	}
}

// SessionResponse describes a session without exposing its id
type SessionResponse struct {
	Principal domain.Principal `json:"principal"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

// Create handles POST /api/session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	session, err := h.store.Create(ctx, *p)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.InfoContext(ctx, "session created",
		slog.String("role", string(p.Role)),
		slog.Time("expires_at", session.ExpiresAt))

	respondJSON(w, http.StatusCreated, SessionResponse{
		Principal: session.Principal,
		ExpiresAt: &session.ExpiresAt,
	})
}

// Current handles GET /api/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{Principal: *p})
}

// Delete handles DELETE /api/session. Requests without a session cookie
// succeed so logout stays idempotent.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if c, err := r.Cookie(h.cookie); err == nil && c.Value != "" {
		if err := h.store.Delete(ctx, c.Value); err != nil && !errors.Is(err, ports.ErrSessionNotFound) {
			respondDomainError(w, r, h.logger, err, "Failed to delete session")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
